package stages

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"muxplan/internal/config"
	"muxplan/internal/pipeline"
	"muxplan/internal/services"
	"muxplan/internal/subtitles"
)

// Dependencies carries the collaborators stages may need.
type Dependencies struct {
	Logger *slog.Logger
	// Extractor backs subtitle_extract. Nil builds a subtitles.Tool from the
	// configured tools.
	Extractor subtitles.Extractor
}

type factory struct {
	description string
	build       func(cfg *config.Config, deps Dependencies) pipeline.Stage
}

var registry = map[string]factory{
	"audio_fallback": {
		description: "add a compatible fallback track for each HD audio track without one",
		build: func(cfg *config.Config, deps Dependencies) pipeline.Stage {
			return NewAudioFallback(cfg.Audio.FallbackCodec, deps.Logger)
		},
	},
	"audio_reorder": {
		description: "sort audio tracks by codec and language preference and set the default",
		build: func(cfg *config.Config, deps Dependencies) pipeline.Stage {
			return NewAudioReorder(ReorderOptions{
				CodecOrder:    cfg.Audio.CodecOrder,
				LanguageOrder: cfg.Audio.LanguageOrder,
				Precedence:    cfg.Audio.Precedence,
			}, deps.Logger)
		},
	},
	"audio_language_filter": {
		description: "drop audio tracks outside the configured languages",
		build: func(cfg *config.Config, deps Dependencies) pipeline.Stage {
			return NewAudioLanguageFilter(cfg.Audio.Languages, deps.Logger)
		},
	},
	"subtitle_language_filter": {
		description: "drop subtitle tracks outside the configured languages",
		build: func(cfg *config.Config, deps Dependencies) pipeline.Stage {
			return NewSubtitleLanguageFilter(cfg.Subtitles.Languages, deps.Logger)
		},
	},
	"subtitle_dedupe": {
		description: "collapse subtitle tracks with the same language, codec and name",
		build: func(_ *config.Config, deps Dependencies) pipeline.Stage {
			return NewSubtitleDedupe(deps.Logger)
		},
	},
	"subtitle_reorder": {
		description: "sort subtitle tracks by language and codec preference and set the default",
		build: func(cfg *config.Config, deps Dependencies) pipeline.Stage {
			return NewSubtitleReorder(ReorderOptions{
				CodecOrder:    cfg.Subtitles.CodecOrder,
				LanguageOrder: cfg.Subtitles.LanguageOrder,
				Precedence:    cfg.Subtitles.Precedence,
			}, deps.Logger)
		},
	},
	"subtitle_convert": {
		description: "convert or drop subtitle tracks the target container cannot store",
		build: func(_ *config.Config, deps Dependencies) pipeline.Stage {
			return NewSubtitleConvert(deps.Logger)
		},
	},
	"subtitle_extract": {
		description: "extract or OCR one SRT per language and variant as extra inputs",
		build: func(cfg *config.Config, deps Dependencies) pipeline.Stage {
			extractor := deps.Extractor
			if extractor == nil {
				extractor = subtitles.NewTool(subtitles.ToolOptions{
					FFmpeg:   cfg.Tools.FFmpeg,
					Dotnet:   cfg.Tools.Dotnet,
					PgsToSrt: cfg.Tools.PgsToSrt,
					Tessdata: cfg.Tools.Tessdata,
					Timeout:  cfg.ExtractTimeout(),
				}, deps.Logger)
			}
			return NewSubtitleExtract(extractor, cfg.Paths.StagingDir, cfg.Subtitles.ExtractLanguages, deps.Logger)
		},
	},
	"subtitle_fix_english": {
		description: "repair OCR mistakes in extracted English SRT files",
		build: func(_ *config.Config, deps Dependencies) pipeline.Stage {
			return NewSubtitleFixEnglish(deps.Logger)
		},
	},
	"stream_metadata_remove": {
		description: "clear title and handler name on video and/or audio tracks",
		build: func(cfg *config.Config, deps Dependencies) pipeline.Stage {
			return NewMetadataRemove(cfg.Metadata.RemoveVideo, cfg.Metadata.RemoveAudio, deps.Logger)
		},
	},
	"video_title": {
		description: "label video tracks with resolution, codec and dynamic range",
		build: func(_ *config.Config, deps Dependencies) pipeline.Stage {
			return NewVideoTitle(deps.Logger)
		},
	},
}

// Description pairs a stage name with a one-line summary.
type Description struct {
	Name    string
	Summary string
}

// Describe lists every registered stage sorted by name.
func Describe() []Description {
	out := make([]Description, 0, len(registry))
	for name, f := range registry {
		out = append(out, Description{Name: name, Summary: f.description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Known reports whether name is a registered stage.
func Known(name string) bool {
	_, ok := registry[normalizeName(name)]
	return ok
}

// Build constructs the named stages in order. Unknown names are a
// configuration error that lists every offender. With subtitles.fix_english_ocr
// set, subtitle_fix_english runs right after subtitle_extract unless the chain
// already names it.
func Build(cfg *config.Config, names []string, deps Dependencies) ([]pipeline.Stage, error) {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	if cfg.Subtitles.FixEnglishOCR {
		names = withEnglishFix(names)
	}
	var unknown []string
	built := make([]pipeline.Stage, 0, len(names))
	for _, raw := range names {
		name := normalizeName(raw)
		f, ok := registry[name]
		if !ok {
			unknown = append(unknown, raw)
			continue
		}
		built = append(built, f.build(cfg, deps))
	}
	if len(unknown) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "stages", "build",
			fmt.Sprintf("unknown stage(s): %s", strings.Join(unknown, ", ")), nil)
	}
	return built, nil
}

func withEnglishFix(names []string) []string {
	extractAt := -1
	for i, name := range names {
		switch normalizeName(name) {
		case "subtitle_fix_english":
			return names
		case "subtitle_extract":
			extractAt = i
		}
	}
	if extractAt < 0 {
		return names
	}
	out := make([]string, 0, len(names)+1)
	out = append(out, names[:extractAt+1]...)
	out = append(out, "subtitle_fix_english")
	return append(out, names[extractAt+1:]...)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
