// Package staging manages the per-source work directories that hold files
// produced for a remux (extracted subtitles), the advisory locks that guard
// them, and their removal once the plan has been handed off.
package staging
