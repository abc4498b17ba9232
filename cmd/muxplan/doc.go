// Command muxplan plans ffmpeg remux arguments for a media file.
//
// The plan command probes a file (or reads captured ffprobe JSON), runs the
// configured stage chain over the probed streams, and prints the resulting
// stream layout and ffmpeg argument list. Nothing is remuxed; the printed
// command is the hand-off to whatever executes it.
//
// Other commands list the registered stages, browse the run journal, check
// the external toolchain, and manage configuration and staging directories.
package main
