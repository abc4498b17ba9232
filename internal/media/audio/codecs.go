package audio

import (
	"regexp"
	"strconv"
	"strings"
)

var codecSeparators = strings.NewReplacer(" ", "", "_", "", "-", "", "\t", "")

// NormalizeCodec lowercases a codec name and strips separators so that
// "DTS-HD", "dts_hd" and "dtshd" compare equal.
func NormalizeCodec(name string) string {
	return codecSeparators.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// hdCodecs are lossless or premium codecs many playback devices cannot decode.
var hdCodecs = map[string]struct{}{
	"truehd": {},
	"thd":    {},
	"dts":    {},
	"dtshd":  {},
	"dtsma":  {},
	"mlp":    {},
}

// fallbackCodecs are codecs broadly decodable by playback devices.
var fallbackCodecs = map[string]struct{}{
	"eac3": {},
	"ac3":  {},
	"aac":  {},
	"flac": {},
}

// lossless codecs, used for display only.
var losslessCodecs = map[string]struct{}{
	"truehd": {}, "mlp": {}, "flac": {}, "alac": {}, "dtsma": {},
	"pcms16le": {}, "pcms24le": {}, "pcms32le": {}, "pcmbluray": {},
}

// IsHD reports whether the codec needs a compatible fallback track.
func IsHD(codec string) bool {
	_, ok := hdCodecs[NormalizeCodec(codec)]
	return ok
}

// IsFallback reports whether the codec can serve as a compatible fallback.
func IsFallback(codec string) bool {
	_, ok := fallbackCodecs[NormalizeCodec(codec)]
	return ok
}

// IsLossless reports whether the codec is lossless.
func IsLossless(codec string) bool {
	_, ok := losslessCodecs[NormalizeCodec(codec)]
	return ok
}

// ChannelCount returns the reported channel count, inferring it from the
// channel layout when ffprobe did not report one. Zero means unknown.
func ChannelCount(channels int, layout string) int {
	if channels > 0 {
		return channels
	}
	layout = strings.ToLower(strings.TrimSpace(layout))
	switch {
	case layout == "":
		return 0
	case layout == "mono":
		return 1
	case layout == "stereo":
		return 2
	case strings.HasPrefix(layout, "7.1"):
		return 8
	case strings.HasPrefix(layout, "6.1"):
		return 7
	case strings.HasPrefix(layout, "5.1"):
		return 6
	case strings.HasPrefix(layout, "5.0"):
		return 5
	case strings.HasPrefix(layout, "4.0"), layout == "quad":
		return 4
	case strings.HasPrefix(layout, "2.1"):
		return 3
	case strings.HasPrefix(layout, "2.0"):
		return 2
	case strings.HasPrefix(layout, "1.0"):
		return 1
	}
	if strings.Contains(layout, ".") {
		total := 0
		for _, part := range strings.Split(layout, ".") {
			part = strings.Trim(part, "abcdefghijklmnopqrstuvwxyz ()")
			if part == "" {
				continue
			}
			if n, err := strconv.Atoi(part); err == nil {
				total += n
			}
		}
		if total > 0 {
			return total
		}
	}
	return 0
}

// ParseBitRate parses ffprobe bit_rate values and BPS tags. A trailing "k"
// multiplies by 1000 ("640k" is 640000). Unparseable input yields 0.
func ParseBitRate(value string) int64 {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return 0
	}
	multiplier := 1.0
	switch {
	case strings.HasSuffix(value, "k"):
		multiplier = 1000
		value = strings.TrimSuffix(value, "k")
	case strings.HasSuffix(value, "m"):
		multiplier = 1000 * 1000
		value = strings.TrimSuffix(value, "m")
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return int64(parsed * multiplier)
}

// FallbackBitrate picks the encoder bitrate for a synthesized compatible
// track. An unknown channel count is treated as stereo.
func FallbackBitrate(channels int) string {
	if channels <= 0 {
		channels = 2
	}
	switch {
	case channels >= 8:
		return "896k"
	case channels >= 6:
		return "640k"
	case channels >= 2:
		return "320k"
	default:
		return "192k"
	}
}

// MaxFallbackChannels is the channel limit of the E-AC-3 encoder.
const MaxFallbackChannels = 6

var (
	titleAliases = strings.NewReplacer(
		"dts-hd", "dtshd",
		"dts hd", "dtshd",
		"e-ac-3", "eac3",
		"ac-3", "ac3",
		"dd+", "ddp",
		"dts:x", "dtsx",
	)
	titleNonWord  = regexp.MustCompile(`[^a-z0-9.]+`)
	channelToken  = regexp.MustCompile(`^\d\.\d$|^\d+ch$`)
	scrubbedWords = map[string]struct{}{
		"truehd": {}, "thd": {}, "dts": {}, "dtshd": {}, "dtsx": {}, "ma": {}, "hd": {},
		"ac3": {}, "eac3": {}, "ddp": {}, "dd": {}, "aac": {}, "flac": {}, "pcm": {}, "lpcm": {},
		"atmos": {}, "dolby": {}, "digital": {}, "plus": {}, "master": {}, "audio": {},
		"surround": {}, "stereo": {}, "mono": {},
	}
)

// ScrubTitle lowercases a track title and removes codec, format and channel
// labels so that "English TrueHD 7.1" and "English E-AC-3 5.1" both scrub to
// "english".
func ScrubTitle(title string) string {
	lowered := titleAliases.Replace(strings.ToLower(title))
	fields := strings.Fields(titleNonWord.ReplaceAllString(lowered, " "))
	kept := fields[:0]
	for _, field := range fields {
		field = strings.Trim(field, ".")
		if field == "" {
			continue
		}
		if _, ok := scrubbedWords[field]; ok {
			continue
		}
		if channelToken.MatchString(field) {
			continue
		}
		kept = append(kept, field)
	}
	return strings.Join(kept, " ")
}
