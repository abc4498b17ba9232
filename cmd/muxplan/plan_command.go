package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"muxplan/internal/config"
	"muxplan/internal/history"
	"muxplan/internal/language"
	"muxplan/internal/logging"
	"muxplan/internal/media/audio"
	"muxplan/internal/media/ffprobe"
	"muxplan/internal/pipeline"
	"muxplan/internal/services"
	"muxplan/internal/stages"
	"muxplan/internal/staging"
)

type planOptions struct {
	stages    []string
	container string
	output    string
	source    string
	json      bool
	noHistory bool
	cleanup   bool
	saveProbe string
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var opts planOptions

	cmd := &cobra.Command{
		Use:   "plan <media-file|probe.json>",
		Short: "Run the stage chain and print the planned ffmpeg arguments",
		Long: `Probe a media file (or read captured "ffprobe -show_streams -show_format -of json"
output) and run the configured stage chain over its streams.

The resulting stream layout and the full ffmpeg argument list are printed.
Files staged by subtitle extraction stay in place so the printed command can be
run; pass --cleanup to remove them once the plan is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return runPlan(cmd, cfg, logger, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.stages, "stages", nil, "Comma-separated stage chain (overrides pipeline.stages)")
	cmd.Flags().StringVar(&opts.container, "container", "", "Target container (overrides pipeline.container)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file used in the printed command")
	cmd.Flags().StringVar(&opts.source, "source", "", "Media path to use in the command when reading probe JSON")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Emit the plan as JSON")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not journal this run")
	cmd.Flags().BoolVar(&opts.cleanup, "cleanup", false, "Remove staged files after printing the plan")
	cmd.Flags().StringVar(&opts.saveProbe, "save-probe", "", "Write the ffprobe JSON to this path for later runs")
	return cmd
}

// planResult is the JSON shape of a plan.
type planResult struct {
	RunID         string         `json:"run_id"`
	Source        string         `json:"source"`
	Container     string         `json:"container"`
	ShouldProcess bool           `json:"should_process"`
	Changed       bool           `json:"changed"`
	Command       []string       `json:"command"`
	MapArguments  []string       `json:"map_arguments"`
	Streams       []streamArgs   `json:"streams"`
	State         pipeline.State `json:"state"`
	Stages        []stageOutcome `json:"stages"`
	Error         string         `json:"error,omitempty"`
}

// streamArgs is the rendered argument slice of one output stream.
type streamArgs struct {
	ID          int                `json:"id"`
	Type        pipeline.CodecType `json:"codec_type"`
	OutputIndex int                `json:"output_index"`
	Arguments   []string           `json:"arguments"`
}

type stageOutcome struct {
	Stage      string `json:"stage"`
	Changed    bool   `json:"changed"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

func runPlan(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, target string, opts planOptions) error {
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}

	source, result, err := loadProbe(runCtx, cfg, target, opts.source)
	if err != nil {
		return err
	}
	if opts.saveProbe != "" {
		if err := saveProbe(opts.saveProbe, result); err != nil {
			return err
		}
	}

	names := cfg.Pipeline.Stages
	if len(opts.stages) > 0 {
		names = opts.stages
	}
	chain, err := stages.Build(cfg, names, stages.Dependencies{Logger: logger})
	if err != nil {
		return err
	}

	if stale := staging.CleanStale(runCtx, cfg.Paths.StagingDir, cfg.StagingRetention(), logger); len(stale.Removed) > 0 {
		logger.Info("stale staging directories removed", logging.Int("count", len(stale.Removed)))
	}

	probes := pipeline.NewProbeSet(source, result)
	state := pipeline.State{Container: firstNonEmpty(opts.container, cfg.Pipeline.Container)}
	runID := uuid.NewString()
	runnerOpts := []pipeline.RunnerOption{
		pipeline.WithRunID(runID),
		pipeline.WithContinueOnError(cfg.Pipeline.ContinueOnError),
	}

	var journal *history.Store
	if cfg.Pipeline.RecordHistory && !opts.noHistory {
		journal = openJournal(runCtx, cfg, logger, history.Run{
			ID:         runID,
			SourcePath: source,
			Container:  pipeline.ResolveContainer(state, probes),
			Stages:     stageNames(chain),
		})
	}
	if journal != nil {
		defer journal.Close()
		runnerOpts = append(runnerOpts, pipeline.WithRecorder(journal))
	}

	report, runErr := pipeline.NewRunner(logger, runnerOpts...).Run(runCtx, probes, state, chain...)

	if journal != nil {
		if err := journal.FinishRun(runCtx, report.RunID, report.State, runErr); err != nil {
			logger.Warn("run journal update failed",
				logging.String(logging.FieldEventType, "journal_write_failed"),
				logging.String(logging.FieldImpact, "history shows the run as unfinished"),
				logging.Error(err),
			)
		}
	}

	final := report.State
	final.EnsureSeeded(probes)
	command := pipeline.Command(final, source, opts.output)
	container := pipeline.ResolveContainer(final, probes)

	if opts.json {
		out := planResult{
			RunID:         report.RunID,
			Source:        source,
			Container:     container,
			ShouldProcess: final.ShouldProcess,
			Changed:       report.Changed(),
			Command:       command,
			MapArguments:  pipeline.RenderMaps(final.Streams),
			Streams:       renderedStreams(final.Streams),
			State:         final,
			Stages:        stageOutcomes(report.Stages),
		}
		if runErr != nil {
			out.Error = runErr.Error()
		}
		if err := writeJSON(cmd, out); err != nil {
			return err
		}
	} else {
		printPlan(cmd.OutOrStdout(), probes, result, final, report, container, command)
	}

	if opts.cleanup && len(final.TempFiles) > 0 {
		cleaned := staging.Cleanup(final.TempFiles, logger)
		for _, failure := range cleaned.Errors {
			logger.Warn("staged file cleanup failed",
				logging.String(logging.FieldEventType, "staging_cleanup_failed"),
				logging.String("path", failure.Path),
				logging.Error(failure.Error),
			)
		}
	}
	return runErr
}

// loadProbe reads captured ffprobe JSON when target ends in .json and probes
// the file otherwise.
func loadProbe(ctx context.Context, cfg *config.Config, target, sourceOverride string) (string, ffprobe.Result, error) {
	target, err := config.ExpandPath(strings.TrimSpace(target))
	if err != nil {
		return "", ffprobe.Result{}, services.Wrap(services.ErrValidation, "plan", "resolve path", target, err)
	}
	if strings.EqualFold(filepath.Ext(target), ".json") {
		result, err := ffprobe.ReadFile(target)
		if err != nil {
			return "", ffprobe.Result{}, services.Wrap(services.ErrValidation, "plan", "read probe", target, err)
		}
		source := firstNonEmpty(sourceOverride, result.Format.Filename, strings.TrimSuffix(target, filepath.Ext(target)))
		return source, result, nil
	}
	result, err := ffprobe.Inspect(ctx, cfg.FFprobeBinary(), target)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", ffprobe.Result{}, err
		}
		return "", ffprobe.Result{}, services.Wrap(services.ErrExternalTool, "plan", "ffprobe", target, err)
	}
	return firstNonEmpty(sourceOverride, target), result, nil
}

func saveProbe(path string, result ffprobe.Result) error {
	path, err := config.ExpandPath(strings.TrimSpace(path))
	if err != nil {
		return services.Wrap(services.ErrValidation, "plan", "save probe", "resolve path", err)
	}
	raw := result.RawJSON()
	if len(raw) == 0 {
		return services.Wrap(services.ErrValidation, "plan", "save probe", "no probe output to save", nil)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "plan", "save probe", path, err)
	}
	return nil
}

func openJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger, run history.Run) *history.Store {
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		logger.Warn("run journal unavailable",
			logging.String(logging.FieldEventType, "journal_open_failed"),
			logging.String(logging.FieldErrorHint, "check paths.history_db"),
			logging.Error(err),
		)
		return nil
	}
	if err := store.BeginRun(ctx, run); err != nil {
		logger.Warn("run journal write failed",
			logging.String(logging.FieldEventType, "journal_write_failed"),
			logging.Error(err),
		)
		_ = store.Close()
		return nil
	}
	return store
}

func printPlan(out io.Writer, probes *pipeline.ProbeSet, result ffprobe.Result, state pipeline.State, report pipeline.Report, container string, command []string) {
	fmt.Fprintf(out, "Source:    %s\n", probes.Path)
	fmt.Fprintf(out, "Streams:   %s\n", probeSummary(result))
	fmt.Fprintf(out, "Container: %s\n", container)
	fmt.Fprintf(out, "Run:       %s\n\n", report.RunID)

	writeTable(out, []column{
		{Title: "Out", Right: true}, {Title: "ID", Right: true},
		{Title: "Type"}, {Title: "Codec"}, {Title: "Lang"}, {Title: "Title"}, {Title: "Source"}, {Title: "Status"},
	}, streamRows(probes, state))
	fmt.Fprintln(out)

	writeTable(out, []column{
		{Title: "#", Right: true}, {Title: "Stage"}, {Title: "Changed"}, {Title: "Reason"}, {Title: "Time", Right: true},
	}, stageRows(report.Stages))
	fmt.Fprintln(out)

	if !state.ShouldProcess {
		fmt.Fprintln(out, "No changes planned; the file can be left as is.")
		return
	}
	fmt.Fprintln(out, "ffmpeg "+shellJoin(command))
}

func renderedStreams(plans []pipeline.Plan) []streamArgs {
	out := make([]streamArgs, 0, len(plans))
	for _, plan := range plans {
		idx, ok := pipeline.OutputIndex(plans, plan.ID)
		if !ok {
			continue
		}
		out = append(out, streamArgs{
			ID:          plan.ID,
			Type:        plan.Type,
			OutputIndex: idx,
			Arguments:   pipeline.RenderPlan(plans, plan),
		})
	}
	return out
}

// probeSummary describes the source as "1 video, 2 audio, 1 subtitle" plus
// duration and overall bitrate when ffprobe reported them.
func probeSummary(result ffprobe.Result) string {
	summary := fmt.Sprintf("%d video, %d audio, %d subtitle",
		result.VideoStreamCount(), result.AudioStreamCount(), result.SubtitleStreamCount())
	if secs := result.DurationSeconds(); !math.IsNaN(secs) && secs > 0 {
		summary += ", " + (time.Duration(secs * float64(time.Second))).Round(time.Second).String()
	}
	if rate := result.BitRate(); rate > 0 {
		summary += ", " + humanize.SIWithDigits(float64(rate), 1, "b/s")
	}
	return summary
}

func streamRows(probes *pipeline.ProbeSet, state pipeline.State) [][]string {
	rows := make([][]string, 0, len(state.Streams))
	for _, plan := range state.Streams {
		position := "-"
		status := "removed"
		if idx, ok := pipeline.OutputIndex(state.Streams, plan.ID); ok {
			position = strconv.Itoa(idx)
			status = "copy"
			if codec, ok := pipeline.CodecValue(plan.OutputArgs); ok && codec != "copy" {
				status = "encode " + codec
			}
		}
		source := fmt.Sprintf("%d:%d", plan.Input, plan.SourceIndex)
		if plan.SourceIndex == pipeline.Unset {
			source = fmt.Sprintf("%d:s:%d", plan.Input, plan.SourceTypeIndex)
		}
		if plan.Input > 0 && plan.Input <= len(state.AdditionalInputs) {
			source = filepath.Base(state.AdditionalInputs[plan.Input-1])
		}
		codec := probes.CodecName(plan)
		if plan.Type == pipeline.TypeAudio && audio.IsLossless(codec) {
			codec += " (lossless)"
		}
		rows = append(rows, []string{
			position,
			strconv.Itoa(plan.ID),
			string(plan.Type),
			codec,
			languageLabel(probes.Language(plan)),
			truncate(probes.Title(plan), 40),
			source,
			status,
		})
	}
	return rows
}

func languageLabel(code string) string {
	if code == "" {
		return ""
	}
	return fmt.Sprintf("%s (%s)", code, language.DisplayName(code))
}

func stageRows(records []pipeline.StageRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		reason := record.Reason
		if record.Err != nil {
			reason = "error: " + record.Err.Error()
		}
		rows = append(rows, []string{
			strconv.Itoa(record.Sequence + 1),
			record.Stage,
			yesNo(record.Changed),
			truncate(reason, 60),
			record.Duration.Round(time.Millisecond).String(),
		})
	}
	return rows
}

func stageOutcomes(records []pipeline.StageRecord) []stageOutcome {
	out := make([]stageOutcome, 0, len(records))
	for _, record := range records {
		entry := stageOutcome{
			Stage:      record.Stage,
			Changed:    record.Changed,
			Reason:     record.Reason,
			DurationMS: record.Duration.Milliseconds(),
		}
		if record.Err != nil {
			entry.Error = record.Err.Error()
		}
		out = append(out, entry)
	}
	return out
}

func stageNames(chain []pipeline.Stage) []string {
	names := make([]string, 0, len(chain))
	for _, stage := range chain {
		names = append(names, stage.Name())
	}
	return names
}
