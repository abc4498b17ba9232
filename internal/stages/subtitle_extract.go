package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"muxplan/internal/language"
	"muxplan/internal/logging"
	"muxplan/internal/media/subtitle"
	"muxplan/internal/pipeline"
	"muxplan/internal/services"
	"muxplan/internal/staging"
	"muxplan/internal/subtitles"
)

// SubtitleExtract produces one SRT per language and variant (main, forced,
// commentary) and adds each file as an extra input with its own subtitle
// track. Variants that already have an SRT track are left alone.
type SubtitleExtract struct {
	extractor  subtitles.Extractor
	stagingDir string
	languages  []string
	logger     *slog.Logger
}

// NewSubtitleExtract constructs the subtitle_extract stage. An empty
// language list extracts every language.
func NewSubtitleExtract(extractor subtitles.Extractor, stagingDir string, languages []string, logger *slog.Logger) *SubtitleExtract {
	return &SubtitleExtract{
		extractor:  extractor,
		stagingDir: stagingDir,
		languages:  append([]string(nil), languages...),
		logger:     logging.NewComponentLogger(logger, "subtitle_extract"),
	}
}

// Name implements pipeline.Stage.
func (s *SubtitleExtract) Name() string { return "subtitle_extract" }

// HealthCheck reports whether bitmap tracks can be OCR'd.
func (s *SubtitleExtract) HealthCheck(context.Context) pipeline.Health {
	if s.extractor == nil {
		return pipeline.Unhealthy(s.Name(), "no subtitle extractor configured")
	}
	if checker, ok := s.extractor.(interface{ OCRAvailable() bool }); ok && !checker.OCRAvailable() {
		return pipeline.Unhealthy(s.Name(), "tools.pgstosrt not set; bitmap subtitles cannot be OCR'd")
	}
	return pipeline.Healthy(s.Name())
}

type extractJob struct {
	lang   string
	kind   subtitle.Kind
	source pipeline.Plan
}

// Apply implements pipeline.Stage.
func (s *SubtitleExtract) Apply(ctx context.Context, probes *pipeline.ProbeSet, state pipeline.State) (pipeline.Outcome, error) {
	if s.extractor == nil {
		return pipeline.Outcome{}, services.Wrap(services.ErrConfiguration, s.Name(), "apply", "no subtitle extractor configured", nil)
	}
	state = state.Clone()
	state.EnsureSeeded(probes)
	positions := active(state, pipeline.TypeSubtitle)
	if len(positions) == 0 {
		return pipeline.Unchanged(state, "no subtitle streams"), nil
	}

	jobs := s.plan(probes, state, positions)
	if len(jobs) == 0 {
		return pipeline.Unchanged(state, "every subtitle language already has an SRT track"), nil
	}

	ws, err := staging.Open(ctx, s.stagingDir, probes.Path)
	if err != nil {
		return pipeline.Outcome{}, services.Wrap(services.ErrTransient, s.Name(), "open staging", "staging directory unavailable", err)
	}
	logger := stageLogger(ctx, s.logger)
	base := strings.TrimSuffix(filepath.Base(probes.Path), filepath.Ext(probes.Path))

	var written []string
	for _, job := range jobs {
		out := ws.Path(fmt.Sprintf("%s_%s_%s.srt", base, job.lang, job.kind))
		probe, _ := probes.Origin(job.source)
		req := subtitles.Request{
			Source:      probes.Path,
			StreamIndex: probe.Index,
			Codec:       probes.CodecName(job.source),
			Language:    job.lang,
			Output:      out,
		}
		if err := s.extractor.Extract(ctx, req); err != nil {
			for _, path := range written {
				_ = os.Remove(path)
			}
			_ = ws.Discard()
			return pipeline.Outcome{}, services.Wrap(services.ErrExternalTool, s.Name(), "extract",
				fmt.Sprintf("subtitle stream %d (%s %s)", probe.Index, job.lang, job.kind), err)
		}
		written = append(written, out)
		logger.Info("subtitle staged as SRT",
			logging.String("language", job.lang),
			logging.String("kind", string(job.kind)),
			logging.Int("source_stream", probe.Index),
			logging.String("codec", req.Codec),
			logging.String("output", out),
		)
	}
	if err := ws.Close(); err != nil {
		logger.Warn("staging lock release failed",
			logging.String(logging.FieldEventType, "staging_unlock_failed"),
			logging.Error(err),
		)
	}

	if ws.Created() {
		state.TempFiles = append(state.TempFiles, ws.Dir)
	}
	for i, job := range jobs {
		path := written[i]
		state.AdditionalInputs = append(state.AdditionalInputs, path)
		state.TempFiles = append(state.TempFiles, path)
		state.Streams = append(state.Streams, s.newPlan(probes, state, job, len(state.AdditionalInputs)))
	}
	return pipeline.Changed(state, fmt.Sprintf("extracted %d subtitle track(s) to SRT", len(jobs))), nil
}

// plan picks one source track per missing language and variant, preferring
// text tracks that ffmpeg can copy over tracks that need OCR.
func (s *SubtitleExtract) plan(probes *pipeline.ProbeSet, state pipeline.State, positions []int) []extractJob {
	var allowed map[string]struct{}
	if len(s.languages) > 0 {
		allowed = make(map[string]struct{})
		for _, code := range language.ExpandOriginal(s.languages, probes.NativeLanguage(pipeline.TypeSubtitle)) {
			allowed[code] = struct{}{}
		}
	}

	haveSRT := make(map[string]bool)
	candidates := make(map[string][]pipeline.Plan)
	var order []string
	for _, pos := range positions {
		plan := state.Streams[pos]
		lang := language.Canonical(probes.Language(plan))
		if allowed != nil {
			if _, ok := allowed[lang]; !ok {
				continue
			}
		}
		kind := subtitle.Classify(titleText(probes, plan), probes.Disposition(plan, "forced"))
		key := lang + "|" + string(kind)
		if subtitle.IsSRT(probes.CodecName(plan)) {
			haveSRT[key] = true
			continue
		}
		if _, ok := probes.Origin(plan); !ok {
			continue
		}
		if _, ok := candidates[key]; !ok {
			order = append(order, key)
		}
		candidates[key] = append(candidates[key], plan)
	}

	jobs := make([]extractJob, 0, len(order))
	for _, key := range order {
		if haveSRT[key] {
			continue
		}
		group := candidates[key]
		source := group[0]
		for _, plan := range group {
			if subtitle.IsExtractableText(probes.CodecName(plan)) {
				source = plan
				break
			}
		}
		lang, kind, _ := strings.Cut(key, "|")
		jobs = append(jobs, extractJob{lang: lang, kind: subtitle.Kind(kind), source: source})
	}
	return jobs
}

func (s *SubtitleExtract) newPlan(probes *pipeline.ProbeSet, state pipeline.State, job extractJob, input int) pipeline.Plan {
	title := probes.Title(job.source)
	tags := map[string]string{"language": job.lang}
	args := []pipeline.Arg{
		pipeline.Codec(), pipeline.Literal("srt"),
		pipeline.TypeFlag("-metadata:s", pipeline.TypeSubtitle), pipeline.Literal("language=" + job.lang),
	}
	if title != "" {
		tags["title"] = title
		args = append(args, pipeline.TypeFlag("-metadata:s", pipeline.TypeSubtitle), pipeline.Literal("title="+title))
	}
	return pipeline.Plan{
		ID:              state.NextID(probes),
		Type:            pipeline.TypeSubtitle,
		CodecName:       "subrip",
		Tags:            tags,
		Input:           input,
		SourceIndex:     pipeline.Unset,
		SourceTypeIndex: 0,
		MapArgs:         []pipeline.Arg{pipeline.Literal("-map"), pipeline.StreamRef()},
		OutputArgs:      args,
	}
}
