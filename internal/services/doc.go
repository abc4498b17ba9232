// Package services defines shared utilities consumed by pipeline stages and
// the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp stage names and run identifiers
//     for logging.
//   - Structured error markers plus the Wrap helper so failures from ffmpeg,
//     OCR, configuration, or invalid input are classified consistently in
//     logs and the run journal.
package services
