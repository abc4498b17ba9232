// Package logging assembles structured slog loggers for the CLI and the
// pipeline.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that tag log lines with the current stage and run id. The
// console handler prints "component[stage]: message key=value" lines. A no-op
// logger is available for tests and wiring code that cannot fail.
package logging
