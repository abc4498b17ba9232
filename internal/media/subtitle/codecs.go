package subtitle

import (
	"strings"

	"muxplan/internal/media/commentary"
)

// textCodecs can be converted between text subtitle formats.
var textCodecs = map[string]struct{}{
	"subrip":    {},
	"srt":       {},
	"ass":       {},
	"ssa":       {},
	"webvtt":    {},
	"text":      {},
	"utf8":      {},
	"usf":       {},
	"microdvd":  {},
	"mpl2":      {},
	"sami":      {},
	"smi":       {},
	"mov_text":  {},
	"tx3g":      {},
	"subviewer": {},
}

// imageCodecs are bitmap subtitles that need OCR to become text.
var imageCodecs = map[string]struct{}{
	"hdmv_pgs_subtitle": {},
	"pgs":               {},
	"dvb_subtitle":      {},
	"dvd_subtitle":      {},
	"xsub":              {},
	"vobsub":            {},
}

// extractableText are the text codecs ffmpeg can write straight to SRT.
var extractableText = map[string]struct{}{
	"subrip":   {},
	"srt":      {},
	"ass":      {},
	"ssa":      {},
	"text":     {},
	"mov_text": {},
	"webvtt":   {},
}

func normalize(codec string) string {
	return strings.ToLower(strings.TrimSpace(codec))
}

// IsText reports whether the codec is a text subtitle format.
func IsText(codec string) bool {
	_, ok := textCodecs[normalize(codec)]
	return ok
}

// IsImage reports whether the codec is a bitmap subtitle format.
func IsImage(codec string) bool {
	_, ok := imageCodecs[normalize(codec)]
	return ok
}

// IsExtractableText reports whether ffmpeg can convert the codec to SRT
// without OCR.
func IsExtractableText(codec string) bool {
	_, ok := extractableText[normalize(codec)]
	return ok
}

// IsSRT reports whether the codec already is SubRip.
func IsSRT(codec string) bool {
	switch normalize(codec) {
	case "subrip", "srt":
		return true
	}
	return false
}

// Policy describes the subtitle codecs a container can hold.
type Policy struct {
	// Target is the text codec converted subtitles are written as.
	Target string
	// Accepted codecs are stored as-is.
	Accepted map[string]struct{}
}

// Accepts reports whether the codec can be stored without conversion.
func (p Policy) Accepts(codec string) bool {
	_, ok := p.Accepted[normalize(codec)]
	return ok
}

var mp4Policy = Policy{
	Target:   "mov_text",
	Accepted: map[string]struct{}{"mov_text": {}, "tx3g": {}},
}

var policies = map[string]Policy{
	"mp4":  mp4Policy,
	"m4v":  mp4Policy,
	"mov":  mp4Policy,
	"webm": {Target: "webvtt", Accepted: map[string]struct{}{"webvtt": {}}},
}

// PolicyFor returns the subtitle policy for a restrictive container. Containers
// that store any subtitle codec (such as Matroska) report false.
func PolicyFor(container string) (Policy, bool) {
	policy, ok := policies[normalize(container)]
	return policy, ok
}

// IsMP4Family reports whether the container belongs to the ISO-BMFF family.
func IsMP4Family(container string) bool {
	switch normalize(container) {
	case "mp4", "m4v", "mov":
		return true
	}
	return false
}

// Kind groups subtitle tracks of one language into variants.
type Kind string

const (
	KindMain       Kind = "main"
	KindForced     Kind = "forced"
	KindCommentary Kind = "commentary"
)

// Classify derives the variant from a track title and its forced flag.
func Classify(title string, forced bool) Kind {
	switch {
	case commentary.IsCommentary(title):
		return KindCommentary
	case forced || strings.Contains(strings.ToLower(title), "forced"):
		return KindForced
	default:
		return KindMain
	}
}

// NormalizeHandler returns the handler name lowercased, or empty when the
// value is a muxer placeholder that does not distinguish tracks.
func NormalizeHandler(handler string) string {
	value := strings.ToLower(strings.TrimSpace(handler))
	switch value {
	case "", "null", "subtitlehandler":
		return ""
	}
	return value
}
