// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: stream properties including tags, disposition flags, and side data
//   - Format: container-level metadata (format name, duration, bitrate)
//
// Entry points:
//   - Inspect: executes ffprobe and returns the parsed Result
//   - Parse / ReadFile: decode previously captured ffprobe JSON
package ffprobe
