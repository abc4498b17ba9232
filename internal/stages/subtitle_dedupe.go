package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"muxplan/internal/language"
	"muxplan/internal/logging"
	"muxplan/internal/media/subtitle"
	"muxplan/internal/pipeline"
)

// SubtitleDedupe collapses subtitle tracks that share language, codec and
// distinguishing name. Within a group the default track survives, else the
// first one.
type SubtitleDedupe struct {
	logger *slog.Logger
}

// NewSubtitleDedupe constructs the subtitle_dedupe stage.
func NewSubtitleDedupe(logger *slog.Logger) *SubtitleDedupe {
	return &SubtitleDedupe{logger: logging.NewComponentLogger(logger, "subtitle_dedupe")}
}

// Name implements pipeline.Stage.
func (s *SubtitleDedupe) Name() string { return "subtitle_dedupe" }

// Apply implements pipeline.Stage.
func (s *SubtitleDedupe) Apply(ctx context.Context, probes *pipeline.ProbeSet, state pipeline.State) (pipeline.Outcome, error) {
	state = state.Clone()
	state.EnsureSeeded(probes)
	positions := active(state, pipeline.TypeSubtitle)
	if len(positions) < 2 {
		return pipeline.Unchanged(state, "fewer than two subtitle streams"), nil
	}

	mp4Source := subtitle.IsMP4Family(probes.Container)
	groups := make(map[string][]int)
	var keys []string
	for _, pos := range positions {
		plan := state.Streams[pos]
		key := strings.Join([]string{
			language.Canonical(probes.Language(plan)),
			strings.ToLower(probes.CodecName(plan)),
			distinguishingName(probes, plan, mp4Source),
		}, "|")
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], pos)
	}

	logger := stageLogger(ctx, s.logger)
	removed := 0
	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		keeper := group[0]
		for _, pos := range group {
			if probes.Disposition(state.Streams[pos], "default") {
				keeper = pos
				break
			}
		}
		for _, pos := range group {
			if pos == keeper {
				continue
			}
			state.Streams[pos].Removed = true
			removed++
			logger.Info("removing duplicate subtitle",
				logging.Int("stream", state.Streams[pos].ID),
				logging.Int("kept_stream", state.Streams[keeper].ID),
				logging.String("group", key),
			)
		}
	}
	if removed == 0 {
		return pipeline.Unchanged(state, "no duplicate subtitle streams"), nil
	}
	return pipeline.Changed(state, fmt.Sprintf("removed %d duplicate subtitle stream(s)", removed)), nil
}

// distinguishingName is the track title or, for MP4-family sources where the
// handler name carries the label, the handler name. Placeholder handler
// names count as no name.
func distinguishingName(probes *pipeline.ProbeSet, plan pipeline.Plan, mp4Source bool) string {
	if title := strings.ToLower(probes.Title(plan)); title != "" {
		return title
	}
	if !mp4Source {
		return ""
	}
	return subtitle.NormalizeHandler(probes.HandlerName(plan))
}
