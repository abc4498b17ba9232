package pipeline

import (
	"path/filepath"
	"strings"

	"muxplan/internal/media/ffprobe"
)

// CodecType is the ffprobe codec_type of a stream.
type CodecType string

const (
	TypeVideo      CodecType = "video"
	TypeAudio      CodecType = "audio"
	TypeSubtitle   CodecType = "subtitle"
	TypeAttachment CodecType = "attachment"
	TypeData       CodecType = "data"
)

// ParseCodecType normalizes an ffprobe codec_type value.
func ParseCodecType(value string) CodecType {
	return CodecType(strings.ToLower(strings.TrimSpace(value)))
}

// Selector returns the ffmpeg stream specifier letter for the type, or an
// empty string when ffmpeg has none.
func (t CodecType) Selector() string {
	switch t {
	case TypeVideo:
		return "v"
	case TypeAudio:
		return "a"
	case TypeSubtitle:
		return "s"
	case TypeData:
		return "d"
	case TypeAttachment:
		return "t"
	default:
		return ""
	}
}

// MapOptional reports whether map selectors for the type carry the "?"
// suffix. Video and attachments are required.
func (t CodecType) MapOptional() bool {
	return t != TypeVideo && t != TypeAttachment
}

// Probe is one source stream as reported by ffprobe, plus its ordinal among
// source streams of the same type.
type Probe struct {
	ffprobe.Stream
	Type      CodecType
	TypeIndex int
}

// ProbeSet is the immutable ffprobe view of one source file.
type ProbeSet struct {
	Path      string
	Container string
	Streams   []Probe
	byIndex   map[int]int
}

// NewProbeSet indexes an ffprobe result for the source at path.
func NewProbeSet(path string, result ffprobe.Result) *ProbeSet {
	set := &ProbeSet{
		Path:      path,
		Container: SourceContainer(result.Format.FormatName, path),
		Streams:   make([]Probe, 0, len(result.Streams)),
		byIndex:   make(map[int]int, len(result.Streams)),
	}
	counts := make(map[CodecType]int)
	for _, stream := range result.Streams {
		codecType := ParseCodecType(stream.CodecType)
		probe := Probe{Stream: stream, Type: codecType, TypeIndex: counts[codecType]}
		counts[codecType]++
		set.byIndex[stream.Index] = len(set.Streams)
		set.Streams = append(set.Streams, probe)
	}
	return set
}

// Lookup returns the probe with the given source stream index.
func (s *ProbeSet) Lookup(index int) (Probe, bool) {
	if s == nil {
		return Probe{}, false
	}
	pos, ok := s.byIndex[index]
	if !ok {
		return Probe{}, false
	}
	return s.Streams[pos], true
}

// OfType returns the probes of one codec type in source order.
func (s *ProbeSet) OfType(t CodecType) []Probe {
	if s == nil {
		return nil
	}
	out := make([]Probe, 0, len(s.Streams))
	for _, probe := range s.Streams {
		if probe.Type == t {
			out = append(out, probe)
		}
	}
	return out
}

// NativeLanguage returns the language tag of the first source stream of the
// given type. It stands in for the "original" keyword in language lists.
func (s *ProbeSet) NativeLanguage(t CodecType) string {
	for _, probe := range s.OfType(t) {
		return strings.ToLower(probe.Tag("language"))
	}
	return ""
}

// Origin returns the source probe a plan was seeded from. Plans created by
// stages (synthesized tracks, additional inputs) have no origin even when
// they map from a source stream.
func (s *ProbeSet) Origin(p Plan) (Probe, bool) {
	if p.Input != 0 || p.SourceIndex < 0 || p.ID != p.SourceIndex {
		return Probe{}, false
	}
	return s.Lookup(p.SourceIndex)
}

// MaxIndex returns the highest source stream index, or -1 when empty.
func (s *ProbeSet) MaxIndex() int {
	highest := -1
	if s == nil {
		return highest
	}
	for _, probe := range s.Streams {
		if probe.Index > highest {
			highest = probe.Index
		}
	}
	return highest
}

// Unset marks an absent SourceIndex or SourceTypeIndex.
const Unset = -1

// Plan is the mutable plan for one output stream.
type Plan struct {
	ID              int               `json:"id"`
	Type            CodecType         `json:"codec_type"`
	CodecName       string            `json:"codec_name,omitempty"`
	Channels        int               `json:"channels,omitempty"`
	ChannelLayout   string            `json:"channel_layout,omitempty"`
	Tags            map[string]string `json:"tags,omitempty"`
	Removed         bool              `json:"removed"`
	Input           int               `json:"input"`
	SourceIndex     int               `json:"source_index"`
	SourceTypeIndex int               `json:"source_type_index"`
	// TypeIndex caches the output type rank at the last render. It is
	// informational; rendering always recomputes positions.
	TypeIndex  int   `json:"type_index"`
	MapArgs    []Arg `json:"map_args"`
	OutputArgs []Arg `json:"output_args"`
}

// Tag returns a plan tag using a case-insensitive key lookup.
func (p Plan) Tag(key string) string {
	if value, ok := p.Tags[key]; ok {
		return strings.TrimSpace(value)
	}
	for k, value := range p.Tags {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (p Plan) clone() Plan {
	out := p
	if p.Tags != nil {
		out.Tags = make(map[string]string, len(p.Tags))
		for k, v := range p.Tags {
			out.Tags[k] = v
		}
	}
	out.MapArgs = append([]Arg(nil), p.MapArgs...)
	out.OutputArgs = append([]Arg(nil), p.OutputArgs...)
	return out
}

// State is the accumulated remux plan passed from stage to stage.
type State struct {
	Streams          []Plan   `json:"streams"`
	InputArguments   []string `json:"input_arguments,omitempty"`
	OutputArguments  []string `json:"output_arguments"`
	Container        string   `json:"container,omitempty"`
	ShouldProcess    bool     `json:"should_process"`
	AdditionalInputs []string `json:"additional_inputs,omitempty"`
	TempFiles        []string `json:"temp_files,omitempty"`
	Seeded           bool     `json:"seeded"`
}

// Clone returns a deep copy so stages can mutate freely and discard the copy
// on failure or no-op.
func (s State) Clone() State {
	out := s
	if s.Streams != nil {
		out.Streams = make([]Plan, len(s.Streams))
		for i, plan := range s.Streams {
			out.Streams[i] = plan.clone()
		}
	}
	out.InputArguments = append([]string(nil), s.InputArguments...)
	out.OutputArguments = append([]string(nil), s.OutputArguments...)
	out.AdditionalInputs = append([]string(nil), s.AdditionalInputs...)
	out.TempFiles = append([]string(nil), s.TempFiles...)
	return out
}

// NextID allocates a plan id distinct from every existing plan id and every
// source stream index.
func (s State) NextID(probes *ProbeSet) int {
	next := probes.MaxIndex() + 1
	for _, plan := range s.Streams {
		if plan.ID >= next {
			next = plan.ID + 1
		}
	}
	return next
}

// Active returns the plans that will be emitted.
func (s State) Active() []Plan {
	out := make([]Plan, 0, len(s.Streams))
	for _, plan := range s.Streams {
		if !plan.Removed {
			out = append(out, plan)
		}
	}
	return out
}

// SourceContainer maps an ffprobe format name to a container extension,
// using the file extension to disambiguate the ISO-BMFF family.
func SourceContainer(formatName, path string) string {
	ext := extension(path)
	for _, name := range strings.Split(strings.ToLower(formatName), ",") {
		switch strings.TrimSpace(name) {
		case "matroska":
			if ext == "webm" {
				return "webm"
			}
			return "mkv"
		case "webm":
			return "webm"
		case "mov", "mp4", "m4a", "3gp", "3g2", "mj2":
			switch ext {
			case "mp4", "m4v", "mov", "m4a":
				return ext
			}
			return "mp4"
		case "avi":
			return "avi"
		case "mpegts":
			return "ts"
		case "":
			continue
		default:
			return strings.TrimSpace(name)
		}
	}
	return ""
}

// ResolveContainer returns the target container: the explicit choice on the
// state, else the source container, else the source file extension, else mkv.
func ResolveContainer(state State, probes *ProbeSet) string {
	if value := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(state.Container), ".")); value != "" {
		return value
	}
	if probes != nil {
		if probes.Container != "" {
			return probes.Container
		}
		if ext := extension(probes.Path); ext != "" {
			return ext
		}
	}
	return "mkv"
}

func extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSpace(path)), "."))
}
