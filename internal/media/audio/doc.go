// Package audio holds the audio codec tables and metadata helpers shared by
// the audio stages: HD codec classification, fallback-capable codecs,
// channel-count inference from layouts, bitrate parsing, and title scrubbing
// used when pairing an HD track with an existing compatible track.
package audio
