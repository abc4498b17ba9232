package stages

import (
	"context"
	"fmt"
	"log/slog"

	"muxplan/internal/logging"
	"muxplan/internal/media/video"
	"muxplan/internal/pipeline"
)

// VideoTitle writes a canonical "<resolution> <codec> <dynamic range>" label
// into each video track's title (Matroska targets) or handler name (other
// containers).
type VideoTitle struct {
	logger *slog.Logger
}

// NewVideoTitle constructs the video_title stage.
func NewVideoTitle(logger *slog.Logger) *VideoTitle {
	return &VideoTitle{logger: logging.NewComponentLogger(logger, "video_title")}
}

// Name implements pipeline.Stage.
func (s *VideoTitle) Name() string { return "video_title" }

// Apply implements pipeline.Stage.
func (s *VideoTitle) Apply(ctx context.Context, probes *pipeline.ProbeSet, state pipeline.State) (pipeline.Outcome, error) {
	state = state.Clone()
	state.EnsureSeeded(probes)
	positions := active(state, pipeline.TypeVideo)
	if len(positions) == 0 {
		return pipeline.Unchanged(state, "no video streams"), nil
	}
	key := metadataKey(pipeline.ResolveContainer(state, probes))

	logger := stageLogger(ctx, s.logger)
	updated := 0
	for _, pos := range positions {
		plan := &state.Streams[pos]
		probe, ok := videoProbe(probes, *plan)
		if !ok || probe.HasDisposition("attached_pic") {
			continue
		}
		label := video.Label(probe.Stream)
		current, ok := pipeline.MetadataValue(plan.OutputArgs, pipeline.TypeVideo, key)
		if !ok {
			current = sourceTag(probes, *plan, key)
		}
		if current == label {
			continue
		}
		plan.OutputArgs = append(pipeline.RemoveMetadata(plan.OutputArgs, pipeline.TypeVideo, key),
			pipeline.TypeFlag("-metadata:s", pipeline.TypeVideo),
			pipeline.Literal(key+"="+label),
		)
		updated++
		logger.Info("video label standardized",
			logging.Int("stream", plan.ID),
			logging.String("key", key),
			logging.String("previous", current),
			logging.String("label", label),
		)
	}
	if updated == 0 {
		return pipeline.Unchanged(state, "video labels already standardized"), nil
	}
	return pipeline.Changed(state, fmt.Sprintf("standardized %d video label(s)", updated)), nil
}

// videoProbe finds the source stream a video plan reads from.
func videoProbe(probes *pipeline.ProbeSet, plan pipeline.Plan) (pipeline.Probe, bool) {
	if probe, ok := probes.Origin(plan); ok {
		return probe, true
	}
	if plan.Input == 0 && plan.SourceIndex >= 0 {
		return probes.Lookup(plan.SourceIndex)
	}
	return pipeline.Probe{}, false
}

// metadataKey is the tag players show as the track name for the container.
func metadataKey(container string) string {
	switch container {
	case "mkv", "mka", "webm":
		return "title"
	default:
		return "handler_name"
	}
}
