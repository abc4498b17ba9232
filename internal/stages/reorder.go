package stages

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"muxplan/internal/config"
	"muxplan/internal/language"
	"muxplan/internal/logging"
	"muxplan/internal/media/audio"
	"muxplan/internal/media/commentary"
	"muxplan/internal/pipeline"
)

// ReorderOptions configures track ordering.
type ReorderOptions struct {
	CodecOrder    []string
	LanguageOrder []string
	// Precedence is "codec" or "language" and selects the primary sort key.
	// The long labels "Codec Order" and "Language Order" are accepted too.
	Precedence string
}

// Reorder sorts the audio or subtitle tracks by codec and language
// preference and assigns the default disposition.
type Reorder struct {
	kind   pipeline.CodecType
	opts   ReorderOptions
	logger *slog.Logger
}

// NewAudioReorder constructs the audio_reorder stage.
func NewAudioReorder(opts ReorderOptions, logger *slog.Logger) *Reorder {
	return newReorder(pipeline.TypeAudio, opts, logger)
}

// NewSubtitleReorder constructs the subtitle_reorder stage. Forced tracks
// sort ahead of regular tracks with equal codec and language rank, and keep
// their forced flag.
func NewSubtitleReorder(opts ReorderOptions, logger *slog.Logger) *Reorder {
	return newReorder(pipeline.TypeSubtitle, opts, logger)
}

func newReorder(kind pipeline.CodecType, opts ReorderOptions, logger *slog.Logger) *Reorder {
	r := &Reorder{kind: kind, opts: opts}
	r.logger = logging.NewComponentLogger(logger, r.Name())
	return r
}

// Name implements pipeline.Stage.
func (r *Reorder) Name() string {
	return string(r.kind) + "_reorder"
}

type rankedTrack struct {
	plan       pipeline.Plan
	primary    int
	secondary  int
	commentary bool
	forced     bool
	channels   int
	bitrate    int64
	original   int
}

// Apply implements pipeline.Stage.
func (r *Reorder) Apply(ctx context.Context, probes *pipeline.ProbeSet, state pipeline.State) (pipeline.Outcome, error) {
	state = state.Clone()
	state.EnsureSeeded(probes)
	positions := active(state, r.kind)
	if len(positions) == 0 {
		return pipeline.Unchanged(state, fmt.Sprintf("no %s streams to reorder", r.kind)), nil
	}

	codecOrder := make([]string, 0, len(r.opts.CodecOrder))
	for _, codec := range r.opts.CodecOrder {
		codecOrder = append(codecOrder, r.normalizeCodec(codec))
	}
	languageOrder := language.ExpandOriginal(r.opts.LanguageOrder, probes.NativeLanguage(r.kind))
	byLanguage := config.NormalizePrecedence(r.opts.Precedence, config.PrecedenceCodec) == config.PrecedenceLanguage

	tracks := make([]rankedTrack, 0, len(positions))
	for i, pos := range positions {
		plan := state.Streams[pos]
		codecRank := rankOf(codecOrder, r.normalizeCodec(probes.CodecName(plan)))
		languageRank := rankOf(languageOrder, language.Canonical(probes.Language(plan)))
		track := rankedTrack{
			plan:       plan,
			primary:    codecRank,
			secondary:  languageRank,
			commentary: commentary.IsCommentary(titleText(probes, plan)),
			original:   i,
		}
		if byLanguage {
			track.primary, track.secondary = languageRank, codecRank
		}
		if r.kind == pipeline.TypeSubtitle {
			track.forced = probes.Disposition(plan, "forced")
		} else {
			channels, layout := probes.Channels(plan)
			track.channels = audio.ChannelCount(channels, layout)
			track.bitrate = planBitRate(probes, plan)
		}
		tracks = append(tracks, track)
	}

	sort.SliceStable(tracks, func(i, j int) bool {
		a, b := tracks[i], tracks[j]
		if a.primary != b.primary {
			return a.primary < b.primary
		}
		if a.secondary != b.secondary {
			return a.secondary < b.secondary
		}
		if a.commentary != b.commentary {
			return !a.commentary
		}
		if a.forced != b.forced {
			return a.forced
		}
		if a.channels != b.channels {
			return a.channels > b.channels
		}
		if a.bitrate != b.bitrate {
			return a.bitrate > b.bitrate
		}
		return a.original < b.original
	})

	defaultIdx := 0
	for i, track := range tracks {
		if !track.commentary {
			defaultIdx = i
			break
		}
	}

	changed := false
	for i := range tracks {
		updated := r.setDisposition(tracks[i].plan.OutputArgs, i == defaultIdx, tracks[i].forced)
		if i != tracks[i].original || !pipeline.ArgsEqual(updated, tracks[i].plan.OutputArgs) {
			changed = true
		}
		tracks[i].plan.OutputArgs = updated
	}
	if !changed {
		return pipeline.Unchanged(state, fmt.Sprintf("%s order already matches preference", r.kind)), nil
	}

	order := make([]int, 0, len(tracks))
	for i, pos := range positions {
		state.Streams[pos] = tracks[i].plan
		order = append(order, tracks[i].plan.ID)
	}
	stageLogger(ctx, r.logger).Debug("tracks reordered",
		logging.Any("order", order),
		logging.Int("default_stream", tracks[defaultIdx].plan.ID),
	)
	return pipeline.Changed(state, fmt.Sprintf("reordered %d %s stream(s)", len(tracks), r.kind)), nil
}

// setDisposition replaces any disposition directive for the track type with
// one carrying the default flag and, for subtitles, the forced flag.
func (r *Reorder) setDisposition(args []pipeline.Arg, makeDefault, forced bool) []pipeline.Arg {
	var flags []string
	if makeDefault {
		flags = append(flags, "default")
	}
	if forced && r.kind == pipeline.TypeSubtitle {
		flags = append(flags, "forced")
	}
	value := "0"
	if len(flags) > 0 {
		value = strings.Join(flags, "+")
	}
	return pipeline.ReplaceDirective(args,
		pipeline.FlagPrefix("-disposition:"+r.kind.Selector()),
		pipeline.TypeFlag("-disposition", r.kind), pipeline.Literal(value),
	)
}

func (r *Reorder) normalizeCodec(codec string) string {
	if r.kind == pipeline.TypeAudio {
		return audio.NormalizeCodec(codec)
	}
	return strings.ToLower(strings.TrimSpace(codec))
}

func rankOf(order []string, value string) int {
	for i, candidate := range order {
		if candidate == value {
			return i
		}
	}
	return math.MaxInt
}

// planBitRate prefers a bitrate the plan will encode at over the source
// bitrate.
func planBitRate(probes *pipeline.ProbeSet, plan pipeline.Plan) int64 {
	if value, ok := pipeline.DirectiveValue(plan.OutputArgs, "-b:"+plan.Type.Selector()); ok {
		return audio.ParseBitRate(value)
	}
	return audio.ParseBitRate(probes.BitRate(plan))
}
