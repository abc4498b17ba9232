// Package config loads, normalizes, and validates muxplan configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TESSDATA_PREFIX. Stage options (language lists, codec orders, precedence)
// are lowercased and deduplicated here so stages receive canonical values.
package config
