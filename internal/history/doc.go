// Package history journals pipeline runs in SQLite.
//
// Each run records the source file, the resolved container, whether the
// final plan requires processing, the final ffmpeg arguments, and the joined
// error if any stage failed. Every stage application is stored alongside
// with its change flag, reason, duration and error kind, so a plan can be
// audited after the fact with `muxplan history show <run-id>`.
//
// The journal is diagnostic data, not a source of truth. Schema changes bump
// schemaVersion; users delete the database to adopt the new schema.
package history
