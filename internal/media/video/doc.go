// Package video derives the canonical descriptive label for a video stream,
// for example "4K HEVC Dolby Vision Profile 8.4 (HDR10)".
//
// The label combines a resolution tier, the codec name, and a dynamic range
// description. Dolby Vision is recognized from several independent signals
// (codec name, side data, handler name, profile string) because muxers and
// ffprobe versions report it inconsistently.
package video
