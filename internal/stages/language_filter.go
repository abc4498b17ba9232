package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"muxplan/internal/language"
	"muxplan/internal/logging"
	"muxplan/internal/pipeline"
)

// LanguageFilter removes audio or subtitle tracks whose language is not in
// the allow-list. The "original" keyword stands for the language of the
// first source track of the same type; untagged tracks count as "und".
type LanguageFilter struct {
	kind      pipeline.CodecType
	languages []string
	logger    *slog.Logger
}

// NewAudioLanguageFilter constructs the audio_language_filter stage.
func NewAudioLanguageFilter(languages []string, logger *slog.Logger) *LanguageFilter {
	return newLanguageFilter(pipeline.TypeAudio, languages, logger)
}

// NewSubtitleLanguageFilter constructs the subtitle_language_filter stage.
func NewSubtitleLanguageFilter(languages []string, logger *slog.Logger) *LanguageFilter {
	return newLanguageFilter(pipeline.TypeSubtitle, languages, logger)
}

func newLanguageFilter(kind pipeline.CodecType, languages []string, logger *slog.Logger) *LanguageFilter {
	f := &LanguageFilter{kind: kind, languages: append([]string(nil), languages...)}
	f.logger = logging.NewComponentLogger(logger, f.Name())
	return f
}

// Name implements pipeline.Stage.
func (f *LanguageFilter) Name() string {
	return string(f.kind) + "_language_filter"
}

// Apply implements pipeline.Stage.
func (f *LanguageFilter) Apply(ctx context.Context, probes *pipeline.ProbeSet, state pipeline.State) (pipeline.Outcome, error) {
	if len(f.languages) == 0 {
		return pipeline.Unchanged(state, fmt.Sprintf("no language filter configured; keeping all %s streams", f.kind)), nil
	}
	state = state.Clone()
	state.EnsureSeeded(probes)
	positions := active(state, f.kind)
	if len(positions) == 0 {
		return pipeline.Unchanged(state, fmt.Sprintf("no %s streams to filter", f.kind)), nil
	}
	allowed := language.ExpandOriginal(f.languages, probes.NativeLanguage(f.kind))
	if len(allowed) == 0 {
		return pipeline.Unchanged(state, "language filter resolved to an empty list"), nil
	}
	keep := make(map[string]struct{}, len(allowed))
	for _, code := range allowed {
		keep[code] = struct{}{}
	}

	logger := stageLogger(ctx, f.logger)
	var removed []string
	for _, pos := range positions {
		lang := language.Canonical(probes.Language(state.Streams[pos]))
		if _, ok := keep[lang]; ok {
			continue
		}
		state.Streams[pos].Removed = true
		removed = append(removed, fmt.Sprintf("%d:%s", state.Streams[pos].ID, lang))
	}
	if len(removed) == 0 {
		return pipeline.Unchanged(state, fmt.Sprintf("all %s streams match %s", f.kind, strings.Join(allowed, ","))), nil
	}
	if len(removed) == len(positions) {
		logger.Warn("language filter removed every stream of its type",
			logging.String("codec_type", string(f.kind)),
			logging.Strings("allowed", allowed),
			logging.String(logging.FieldImpact, fmt.Sprintf("output will carry no %s streams", f.kind)),
		)
	}
	logger.Debug("streams filtered by language", logging.Strings("removed", removed))
	return pipeline.Changed(state, fmt.Sprintf("removed %d %s stream(s) outside %s", len(removed), f.kind, strings.Join(allowed, ","))), nil
}
