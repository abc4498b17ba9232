package stages

import (
	"context"
	"fmt"
	"log/slog"

	"muxplan/internal/logging"
	"muxplan/internal/pipeline"
)

var clearedTags = []string{"title", "handler_name"}

// MetadataRemove clears the title and handler name of video and/or audio
// tracks whose source carries either tag.
type MetadataRemove struct {
	video  bool
	audio  bool
	logger *slog.Logger
}

// NewMetadataRemove constructs the stream_metadata_remove stage.
func NewMetadataRemove(video, audio bool, logger *slog.Logger) *MetadataRemove {
	return &MetadataRemove{
		video:  video,
		audio:  audio,
		logger: logging.NewComponentLogger(logger, "stream_metadata_remove"),
	}
}

// Name implements pipeline.Stage.
func (s *MetadataRemove) Name() string { return "stream_metadata_remove" }

// Apply implements pipeline.Stage.
func (s *MetadataRemove) Apply(ctx context.Context, probes *pipeline.ProbeSet, state pipeline.State) (pipeline.Outcome, error) {
	if !s.video && !s.audio {
		return pipeline.Unchanged(state, "no metadata removal requested"), nil
	}
	state = state.Clone()
	state.EnsureSeeded(probes)

	cleared := 0
	for i := range state.Streams {
		plan := &state.Streams[i]
		if plan.Removed || !s.targets(plan.Type) {
			continue
		}
		probe, ok := probes.Origin(*plan)
		if !ok || (probe.Tag("title") == "" && probe.Tag("handler_name") == "") {
			continue
		}
		updated := pipeline.RemoveMetadata(plan.OutputArgs, plan.Type, clearedTags...)
		for _, key := range clearedTags {
			updated = append(updated, pipeline.TypeFlag("-metadata:s", plan.Type), pipeline.Literal(key+"="))
		}
		if pipeline.ArgsEqual(updated, plan.OutputArgs) {
			continue
		}
		plan.OutputArgs = updated
		cleared++
	}
	if cleared == 0 {
		return pipeline.Unchanged(state, "no metadata to remove"), nil
	}
	stageLogger(ctx, s.logger).Debug("stream metadata cleared", logging.Int("streams", cleared))
	return pipeline.Changed(state, fmt.Sprintf("cleared title and handler name on %d stream(s)", cleared)), nil
}

func (s *MetadataRemove) targets(t pipeline.CodecType) bool {
	return (t == pipeline.TypeVideo && s.video) || (t == pipeline.TypeAudio && s.audio)
}
