package stages

import (
	"context"
	"fmt"
	"log/slog"

	"muxplan/internal/language"
	"muxplan/internal/logging"
	"muxplan/internal/media/subtitle"
	"muxplan/internal/pipeline"
)

// SubtitleConvert rewrites subtitle tracks that the target container cannot
// store. Text tracks are converted to the container's text codec, bitmap
// tracks are dropped, and unknown codecs are converted.
type SubtitleConvert struct {
	logger *slog.Logger
}

// NewSubtitleConvert constructs the subtitle_convert stage.
func NewSubtitleConvert(logger *slog.Logger) *SubtitleConvert {
	return &SubtitleConvert{logger: logging.NewComponentLogger(logger, "subtitle_convert")}
}

// Name implements pipeline.Stage.
func (s *SubtitleConvert) Name() string { return "subtitle_convert" }

// Apply implements pipeline.Stage.
func (s *SubtitleConvert) Apply(ctx context.Context, probes *pipeline.ProbeSet, state pipeline.State) (pipeline.Outcome, error) {
	container := pipeline.ResolveContainer(state, probes)
	policy, restricted := subtitle.PolicyFor(container)
	if !restricted {
		return pipeline.Unchanged(state, fmt.Sprintf("container %s stores any subtitle codec", container)), nil
	}
	state = state.Clone()
	state.EnsureSeeded(probes)
	positions := active(state, pipeline.TypeSubtitle)
	if len(positions) == 0 {
		return pipeline.Unchanged(state, "no subtitle streams"), nil
	}

	logger := stageLogger(ctx, s.logger)
	var converted, dropped, duplicates int
	for _, pos := range positions {
		plan := &state.Streams[pos]
		codec := probes.CodecName(*plan)
		switch {
		case policy.Accepts(codec):
			continue
		case subtitle.IsImage(codec):
			plan.Removed = true
			dropped++
		default:
			if !subtitle.IsText(codec) {
				logger.Warn("converting unrecognised subtitle codec",
					logging.String(logging.FieldEventType, "subtitle_codec_unknown"),
					logging.Int("stream", plan.ID),
					logging.String("codec", codec),
					logging.String("target_codec", policy.Target),
				)
			}
			plan.OutputArgs = pipeline.SetCodec(plan.OutputArgs, policy.Target)
			plan.CodecName = policy.Target
			converted++
		}
	}

	seen := make(map[string]struct{}, len(positions))
	for _, pos := range active(state, pipeline.TypeSubtitle) {
		plan := &state.Streams[pos]
		kind := subtitle.Classify(titleText(probes, *plan), probes.Disposition(*plan, "forced"))
		key := language.Canonical(probes.Language(*plan)) + "|" + string(kind)
		if _, ok := seen[key]; ok {
			plan.Removed = true
			duplicates++
			continue
		}
		seen[key] = struct{}{}
	}

	if converted+dropped+duplicates == 0 {
		return pipeline.Unchanged(state, fmt.Sprintf("subtitle streams already compatible with %s", container)), nil
	}
	logger.Info("subtitles adapted to container",
		logging.String("container", container),
		logging.String("target_codec", policy.Target),
		logging.Int("converted", converted),
		logging.Int("image_dropped", dropped),
		logging.Int("duplicates_dropped", duplicates),
	)
	return pipeline.Changed(state, fmt.Sprintf("converted %d, dropped %d image and %d duplicate subtitle stream(s) for %s",
		converted, dropped, duplicates, container)), nil
}
