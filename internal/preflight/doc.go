// Package preflight provides readiness checks for the external tools and
// filesystem paths muxplan depends on.
//
// The CLI "muxplan check" command runs RunAll and prints the results. The
// plan command runs the required checks before probing so a missing ffprobe
// fails fast instead of halfway through a stage chain.
//
// Optional checks (the OCR toolchain, stage health) report problems without
// failing the run.
package preflight
