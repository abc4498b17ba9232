package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"muxplan/internal/language"
	"muxplan/internal/logging"
	"muxplan/internal/media/audio"
	"muxplan/internal/media/commentary"
	"muxplan/internal/pipeline"
)

// AudioFallback makes sure every HD audio track is accompanied by a widely
// supported track, scheduling a transcode only when no existing track fits.
type AudioFallback struct {
	codec  string
	logger *slog.Logger
}

// NewAudioFallback constructs the stage. An empty codec selects eac3.
func NewAudioFallback(codec string, logger *slog.Logger) *AudioFallback {
	codec = strings.ToLower(strings.TrimSpace(codec))
	if codec == "" {
		codec = "eac3"
	}
	return &AudioFallback{
		codec:  codec,
		logger: logging.NewComponentLogger(logger, "audio_fallback"),
	}
}

// Name implements pipeline.Stage.
func (s *AudioFallback) Name() string { return "audio_fallback" }

// Apply implements pipeline.Stage.
func (s *AudioFallback) Apply(ctx context.Context, probes *pipeline.ProbeSet, state pipeline.State) (pipeline.Outcome, error) {
	state = state.Clone()
	state.EnsureSeeded(probes)

	var hd, candidates []int
	for _, pos := range active(state, pipeline.TypeAudio) {
		codec := probes.CodecName(state.Streams[pos])
		switch {
		case audio.IsHD(codec):
			hd = append(hd, pos)
		case audio.IsFallback(codec):
			candidates = append(candidates, pos)
		}
	}
	if len(hd) == 0 {
		return pipeline.Unchanged(state, "no HD audio streams"), nil
	}

	used := make(map[int]bool, len(candidates))
	missing := make(map[int]bool, len(hd))
	logger := stageLogger(ctx, s.logger)
	for _, h := range hd {
		matched := -1
		for _, c := range candidates {
			if used[c] {
				continue
			}
			if s.matches(probes, state.Streams[h], state.Streams[c]) {
				matched = c
				break
			}
		}
		if matched < 0 {
			missing[h] = true
			continue
		}
		used[matched] = true
		logger.Debug("existing fallback matched",
			logging.Int("hd_stream", state.Streams[h].ID),
			logging.Int("fallback_stream", state.Streams[matched].ID),
		)
	}
	if len(missing) == 0 {
		return pipeline.Unchanged(state, "every HD audio stream already has a fallback"), nil
	}

	nextID := state.NextID(probes)
	streams := make([]pipeline.Plan, 0, len(state.Streams)+len(missing))
	for i, plan := range state.Streams {
		if missing[i] {
			fallback := s.fallbackPlan(probes, plan, nextID)
			nextID++
			logger.Info("scheduling fallback transcode",
				logging.String(logging.FieldEventType, "fallback_scheduled"),
				logging.Int("hd_stream", plan.ID),
				logging.String("codec", s.codec),
				logging.String("bitrate", bitrateOf(fallback)),
			)
			streams = append(streams, fallback)
		}
		streams = append(streams, plan)
	}
	state.Streams = streams
	return pipeline.Changed(state, fmt.Sprintf("added %d %s fallback stream(s)", len(missing), s.codec)), nil
}

// matches reports whether candidate can serve as the fallback for hd.
func (s *AudioFallback) matches(probes *pipeline.ProbeSet, hd, candidate pipeline.Plan) bool {
	candidateTitle := titleText(probes, candidate)
	if commentary.IsCommentary(candidateTitle) {
		return false
	}
	hdLang, candLang := probes.Language(hd), probes.Language(candidate)
	if hdLang != "" && candLang != "" && !language.Equal(hdLang, candLang) {
		return false
	}
	if !commentary.IsCompatibility(candidateTitle) {
		hdChannels, hdLayout := probes.Channels(hd)
		candChannels, candLayout := probes.Channels(candidate)
		hdCount := audio.ChannelCount(hdChannels, hdLayout)
		candCount := audio.ChannelCount(candChannels, candLayout)
		if hdCount > 0 && candCount > 0 && candCount > hdCount {
			return false
		}
		hdLayout, candLayout = normalizeLayout(hdLayout), normalizeLayout(candLayout)
		if hdLayout != "" && candLayout != "" && hdLayout != candLayout && hdCount == candCount {
			return false
		}
	}
	hdTitle := audio.ScrubTitle(titleText(probes, hd))
	candTitle := audio.ScrubTitle(candidateTitle)
	if hdTitle != "" && candTitle != "" {
		return hdTitle == candTitle
	}
	return true
}

func (s *AudioFallback) fallbackPlan(probes *pipeline.ProbeSet, hd pipeline.Plan, id int) pipeline.Plan {
	channels, layout := probes.Channels(hd)
	count := audio.ChannelCount(channels, layout)
	outputArgs := []pipeline.Arg{
		pipeline.Codec(), pipeline.Literal(s.codec),
		pipeline.TypeFlag("-b", pipeline.TypeAudio), pipeline.Literal(audio.FallbackBitrate(count)),
	}
	if count > audio.MaxFallbackChannels {
		outputArgs = append(outputArgs,
			pipeline.TypeFlag("-ac", pipeline.TypeAudio),
			pipeline.Literal(fmt.Sprint(audio.MaxFallbackChannels)),
		)
		count, layout = audio.MaxFallbackChannels, "5.1"
	}
	disposition := "0"
	if probes.Disposition(hd, "forced") {
		disposition = "forced"
	}
	outputArgs = append(outputArgs, pipeline.TypeFlag("-disposition", pipeline.TypeAudio), pipeline.Literal(disposition))

	tags := make(map[string]string, 4)
	for key, value := range map[string]string{
		"language":     probes.Language(hd),
		"title":        probes.Title(hd),
		"handler_name": probes.HandlerName(hd),
		"BPS":          sourceTag(probes, hd, "BPS"),
	} {
		if value != "" {
			tags[key] = value
		}
	}

	return pipeline.Plan{
		ID:              id,
		Type:            pipeline.TypeAudio,
		CodecName:       s.codec,
		Channels:        count,
		ChannelLayout:   layout,
		Tags:            tags,
		Input:           hd.Input,
		SourceIndex:     hd.SourceIndex,
		SourceTypeIndex: hd.SourceTypeIndex,
		MapArgs:         []pipeline.Arg{pipeline.Literal("-map"), pipeline.StreamRef()},
		OutputArgs:      outputArgs,
	}
}

func normalizeLayout(layout string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(layout)))
}

func bitrateOf(plan pipeline.Plan) string {
	value, _ := pipeline.DirectiveValue(plan.OutputArgs, "-b:a")
	return value
}
