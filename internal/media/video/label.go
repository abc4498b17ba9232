package video

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"muxplan/internal/media/ffprobe"
)

// Resolution buckets a stream into a display tier. Width is consulted so
// that letterboxed or cropped encodes land in the right tier.
func Resolution(width, height int) string {
	switch {
	case height >= 2160 || width >= 3800:
		return "4K"
	case height >= 1440 || width >= 2500:
		return "1440p"
	case height >= 1000 || width >= 1900:
		return "1080p"
	case height >= 700 || width >= 1200:
		return "720p"
	case height > 0:
		return strconv.Itoa(height) + "p"
	default:
		return "SD"
	}
}

// Codec returns the upper-cased codec name used in labels.
func Codec(stream ffprobe.Stream) string {
	name := strings.TrimSpace(stream.CodecName)
	if name == "" {
		name = strings.TrimSpace(stream.CodecTag)
	}
	if name == "" {
		name = "video"
	}
	return strings.ToUpper(name)
}

// HDR describes the transfer characteristics of a non Dolby Vision stream.
func HDR(transfer string) string {
	transfer = strings.ToLower(strings.TrimSpace(transfer))
	switch {
	case transfer == "smpte2084":
		return "HDR10"
	case transfer == "arib-std-b67" || strings.Contains(transfer, "hlg"):
		return "HDR"
	default:
		return "SDR"
	}
}

var (
	dvHandlerPattern  = regexp.MustCompile(`(?i)dolby\s*vision|dovi`)
	dvHandlerProfile  = regexp.MustCompile(`(?i)dvp\s*=\s*([0-9]+(?:\.[0-9]+)?)`)
	dvProfilePattern  = regexp.MustCompile(`(?i)dolby vision`)
	firstNumber       = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
	doviRecordTypeKey = "dovi configuration record"
)

// DolbyVision holds the fused Dolby Vision signals of a stream.
type DolbyVision struct {
	Present bool
	Profile string
}

// DetectDolbyVision fuses the codec name, side data, handler name and profile
// string into one presence flag and a profile label. The profile is taken from
// the configuration record when available, then the handler, then the profile
// string; profile 8 is refined with the base-layer compatibility id.
func DetectDolbyVision(stream ffprobe.Stream) DolbyVision {
	codec := strings.ToLower(stream.CodecName)
	handler := stream.Tag("handler_name")
	profileText := strings.TrimSpace(stream.Profile)

	var record *ffprobe.SideData
	signal := strings.HasPrefix(codec, "dv") || strings.Contains(codec, "dovi")
	for i := range stream.SideDataList {
		kind := strings.ToLower(strings.TrimSpace(stream.SideDataList[i].Type))
		if kind == doviRecordTypeKey || strings.Contains(kind, "dovi") {
			signal = true
			if record == nil {
				record = &stream.SideDataList[i]
			}
		}
	}
	if dvHandlerPattern.MatchString(handler) || dvHandlerProfile.MatchString(handler) || dvProfilePattern.MatchString(profileText) {
		signal = true
	}
	if !signal {
		return DolbyVision{}
	}

	profile := ""
	compat, hasCompat := 0, false
	if record != nil {
		if value, ok := record.Values["dv_profile"]; ok {
			profile = strconv.Itoa(value)
		}
		compat, hasCompat = record.Values["dv_bl_signal_compatibility_id"]
	}
	if profile == "" {
		if match := dvHandlerProfile.FindStringSubmatch(handler); len(match) == 2 {
			profile = match[1]
		}
	}
	if profile == "" {
		if match := firstNumber.FindString(profileText); match != "" {
			profile = match
		}
	}
	if profile == "" {
		profile = "Unknown"
	}
	if profile == "8" && hasCompat {
		profile = fmt.Sprintf("8.%d", compat)
	}
	return DolbyVision{Present: true, Profile: profile}
}

// DynamicRange returns the dynamic range portion of the label.
func DynamicRange(stream ffprobe.Stream) string {
	hdr := HDR(stream.ColorTransfer)
	dv := DetectDolbyVision(stream)
	if !dv.Present {
		return hdr
	}
	base := "HDR"
	if hdr == "HDR10" {
		base = "HDR10"
	}
	return fmt.Sprintf("Dolby Vision Profile %s (%s)", dv.Profile, base)
}

// Label builds the canonical descriptive title for a video stream.
func Label(stream ffprobe.Stream) string {
	return strings.Join([]string{
		Resolution(stream.Width, stream.Height),
		Codec(stream),
		DynamicRange(stream),
	}, " ")
}
