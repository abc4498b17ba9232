package pipeline

import (
	"strings"

	"muxplan/internal/language"
)

// Language resolves a plan's language: the plan's own tag, then the origin
// probe's tag, then a language metadata directive in its output arguments.
// The result is lowercased and may be empty.
func (s *ProbeSet) Language(p Plan) string {
	if value := p.Tag("language"); value != "" {
		return strings.ToLower(value)
	}
	if probe, ok := s.Origin(p); ok {
		if value := language.FromTags(probe.Tags); value != "" {
			return value
		}
	}
	if value, ok := MetadataValue(p.OutputArgs, p.Type, "language"); ok {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return ""
}

// Title resolves a plan's title tag, falling back to the origin probe.
func (s *ProbeSet) Title(p Plan) string {
	return s.tag(p, "title")
}

// HandlerName resolves a plan's handler_name tag, falling back to the origin probe.
func (s *ProbeSet) HandlerName(p Plan) string {
	return s.tag(p, "handler_name")
}

func (s *ProbeSet) tag(p Plan, key string) string {
	if value := p.Tag(key); value != "" {
		return value
	}
	if probe, ok := s.Origin(p); ok {
		return probe.Tag(key)
	}
	return ""
}

// CodecName resolves the plan's codec, falling back to the origin probe.
func (s *ProbeSet) CodecName(p Plan) string {
	if value := strings.TrimSpace(p.CodecName); value != "" {
		return strings.ToLower(value)
	}
	if probe, ok := s.Origin(p); ok {
		return strings.ToLower(strings.TrimSpace(probe.CodecName))
	}
	return ""
}

// Channels resolves the plan's channel count and layout.
func (s *ProbeSet) Channels(p Plan) (int, string) {
	channels, layout := p.Channels, p.ChannelLayout
	if probe, ok := s.Origin(p); ok {
		if channels == 0 {
			channels = probe.Channels
		}
		if layout == "" {
			layout = probe.ChannelLayout
		}
	}
	return channels, layout
}

// BitRate resolves the raw bitrate string from bit_rate or the BPS tag.
func (s *ProbeSet) BitRate(p Plan) string {
	if probe, ok := s.Origin(p); ok && strings.TrimSpace(probe.BitRate) != "" {
		return probe.BitRate
	}
	return s.tag(p, "BPS")
}

// Disposition reports a disposition flag: a disposition directive already in
// the plan's output arguments wins over the source flag.
func (s *ProbeSet) Disposition(p Plan, flag string) bool {
	if value, ok := DispositionValue(p.OutputArgs, p.Type); ok {
		for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == '+' || r == ',' }) {
			if strings.EqualFold(strings.TrimSpace(part), flag) {
				return true
			}
		}
		return false
	}
	if probe, ok := s.Origin(p); ok {
		return probe.HasDisposition(flag)
	}
	return false
}
