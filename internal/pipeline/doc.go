// Package pipeline models a remux plan and turns it into an ffmpeg argument
// list.
//
// A ProbeSet holds the immutable ffprobe view of the source. A State holds the
// mutable plan: one Plan per output stream with its map and output arguments,
// plus additional inputs and temp files contributed by stages. Arguments are
// stored as tokens (see Arg) whose stream positions are resolved only when the
// plan is rendered, so stages can reorder, remove, or insert streams without
// rewriting each other's arguments.
//
// Stages implement Stage and are chained by Runner, which logs every outcome,
// keeps the last good state when a stage fails, and optionally journals each
// step through a Recorder.
package pipeline
