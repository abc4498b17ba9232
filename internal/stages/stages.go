package stages

import (
	"context"
	"log/slog"
	"strings"

	"muxplan/internal/logging"
	"muxplan/internal/pipeline"
)

// active returns the positions in state.Streams of the non-removed plans of
// the given type, in list order.
func active(state pipeline.State, t pipeline.CodecType) []int {
	positions := make([]int, 0, len(state.Streams))
	for i, plan := range state.Streams {
		if plan.Removed || plan.Type != t {
			continue
		}
		positions = append(positions, i)
	}
	return positions
}

// titleText returns the text used to describe a track: its title, else a
// handler name that is not a muxer placeholder.
func titleText(probes *pipeline.ProbeSet, plan pipeline.Plan) string {
	if title := probes.Title(plan); title != "" {
		return title
	}
	handler := probes.HandlerName(plan)
	switch strings.ToLower(strings.ReplaceAll(handler, " ", "")) {
	case "", "null", "soundhandler", "subtitlehandler", "videohandler":
		return ""
	}
	return handler
}

// sourceTag returns a tag from the plan, falling back to its origin probe.
func sourceTag(probes *pipeline.ProbeSet, plan pipeline.Plan, key string) string {
	if value := plan.Tag(key); value != "" {
		return value
	}
	if probe, ok := probes.Origin(plan); ok {
		return probe.Tag(key)
	}
	return ""
}

func stageLogger(ctx context.Context, logger *slog.Logger) *slog.Logger {
	return logging.WithContext(ctx, logger)
}
