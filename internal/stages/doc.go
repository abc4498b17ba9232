// Package stages implements the transformations that build a remux plan:
// HD audio fallback creation, audio and subtitle reordering, language
// filtering, subtitle deduplication and container conversion, video title
// standardization, metadata removal, and subtitle extraction to SRT.
//
// Every stage satisfies pipeline.Stage. Stages receive a private copy of the
// plan state and report a no-op with a reason instead of returning the state
// they were given with cosmetic edits. Build assembles the configured chain.
package stages
