package commentary

import (
	"regexp"
	"strings"
)

var (
	commentaryPattern = regexp.MustCompile(`(?i)commentary|narration|descriptive|director|producer|writer`)
	compatPattern     = regexp.MustCompile(`(?i)\bcompat(ibility|ible)?\b`)
)

// IsCommentary reports whether any of the provided metadata strings marks the
// track as commentary, narration, or descriptive audio.
func IsCommentary(texts ...string) bool {
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if commentaryPattern.MatchString(text) {
			return true
		}
	}
	return false
}

// IsCompatibility reports whether the title labels a compatibility track.
func IsCompatibility(texts ...string) bool {
	for _, text := range texts {
		if compatPattern.MatchString(text) {
			return true
		}
	}
	return false
}
