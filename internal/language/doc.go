// Package language folds the many ways streams spell a language ("en",
// "eng", "fre", "English", "en-US") into one comparable ISO 639-2/T code.
//
// Audio and subtitle stages compare through Canonical and Equal so filters,
// ordering, and deduplication agree on what "the same language" means.
// Codes outside the local table are resolved through BCP 47 parsing.
package language
