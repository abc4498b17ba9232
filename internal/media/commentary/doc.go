// Package commentary classifies tracks from their metadata text.
//
// Commentary, narration, and descriptive-audio tracks are recognized by
// keywords in the title or handler name. Compatibility tracks (titles such as
// "Compatibility" or "Compat") are recognized separately because fallback
// matching relaxes channel checks for them.
package commentary
