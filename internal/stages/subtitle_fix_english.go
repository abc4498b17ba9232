package stages

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"muxplan/internal/language"
	"muxplan/internal/logging"
	"muxplan/internal/pipeline"
	"muxplan/internal/services"
	"muxplan/internal/subtitles"
)

// SubtitleFixEnglish repairs OCR artifacts in English SRT files that earlier
// stages added as extra inputs. Files are rewritten in place.
type SubtitleFixEnglish struct {
	logger *slog.Logger
}

// NewSubtitleFixEnglish constructs the subtitle_fix_english stage.
func NewSubtitleFixEnglish(logger *slog.Logger) *SubtitleFixEnglish {
	return &SubtitleFixEnglish{logger: logging.NewComponentLogger(logger, "subtitle_fix_english")}
}

// Name implements pipeline.Stage.
func (s *SubtitleFixEnglish) Name() string { return "subtitle_fix_english" }

// Apply implements pipeline.Stage.
func (s *SubtitleFixEnglish) Apply(ctx context.Context, probes *pipeline.ProbeSet, state pipeline.State) (pipeline.Outcome, error) {
	if len(state.AdditionalInputs) == 0 {
		return pipeline.Unchanged(state, "no extracted subtitle files"), nil
	}
	state = state.Clone()
	state.EnsureSeeded(probes)
	logger := stageLogger(ctx, s.logger)

	seen := make(map[int]struct{})
	var fixes []subtitles.EnglishFix
	for _, pos := range active(state, pipeline.TypeSubtitle) {
		plan := state.Streams[pos]
		if plan.Input <= 0 || plan.Input > len(state.AdditionalInputs) {
			continue
		}
		if !language.Equal(probes.Language(plan), "eng") {
			continue
		}
		if _, ok := seen[plan.Input]; ok {
			continue
		}
		seen[plan.Input] = struct{}{}
		if err := ctx.Err(); err != nil {
			return pipeline.Outcome{}, services.Wrap(services.ErrTimeout, s.Name(), "apply", "cancelled", err)
		}

		path := state.AdditionalInputs[plan.Input-1]
		fix, err := subtitles.PrepareEnglishFix(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Warn("subtitle file missing; skipping",
					logging.String(logging.FieldEventType, "subtitle_missing"),
					logging.String("path", path),
				)
				continue
			}
			return pipeline.Outcome{}, services.Wrap(services.ErrExternalTool, s.Name(), "fix", path, err)
		}
		fixes = append(fixes, fix)
	}
	if len(fixes) == 0 {
		return pipeline.Unchanged(state, "no English subtitle files"), nil
	}

	// Every file is read and fixed before the first write so a read failure
	// leaves all files untouched.
	var changed, lines int
	for _, fix := range fixes {
		if !fix.Changed {
			continue
		}
		if err := fix.Write(); err != nil {
			return pipeline.Outcome{}, services.Wrap(services.ErrExternalTool, s.Name(), "fix", fix.Path, err)
		}
		changed++
		lines += fix.Stats.ChangedLines
		logger.Info("english subtitle cleaned",
			logging.String("path", fix.Path),
			logging.Int("changed_lines", fix.Stats.ChangedLines),
			logging.Int("removed_cues", fix.Stats.RemovedCues),
		)
	}
	if changed == 0 {
		return pipeline.Unchanged(state, "English subtitle files already clean"), nil
	}
	return pipeline.Changed(state, fmt.Sprintf("cleaned %d line(s) in %d English subtitle file(s)", lines, changed)), nil
}
