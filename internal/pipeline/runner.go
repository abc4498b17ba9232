package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"muxplan/internal/logging"
	"muxplan/internal/services"
)

// StageRecord describes one stage application within a run.
type StageRecord struct {
	RunID     string
	Sequence  int
	Stage     string
	Changed   bool
	Reason    string
	Err       error
	Duration  time.Duration
	Arguments []string
}

// Recorder receives stage records as a run progresses.
type Recorder interface {
	RecordStage(ctx context.Context, record StageRecord) error
}

// Report is the result of a run.
type Report struct {
	RunID  string
	State  State
	Stages []StageRecord
}

// Changed reports whether any stage modified the plan.
func (r Report) Changed() bool {
	for _, stage := range r.Stages {
		if stage.Changed {
			return true
		}
	}
	return false
}

// Runner applies stages in sequence.
type Runner struct {
	logger          *slog.Logger
	recorder        Recorder
	continueOnError bool
	newID           func() string
	now             func() time.Time
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithRecorder journals every stage outcome.
func WithRecorder(recorder Recorder) RunnerOption {
	return func(r *Runner) {
		r.recorder = recorder
	}
}

// WithContinueOnError keeps running later stages after a stage fails. The
// failed stage contributes nothing to the state.
func WithContinueOnError(enabled bool) RunnerOption {
	return func(r *Runner) {
		r.continueOnError = enabled
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) {
		if id != "" {
			r.newID = func() string { return id }
		}
	}
}

// NewRunner constructs a runner.
func NewRunner(logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		logger: logging.NewComponentLogger(logger, "pipeline"),
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run applies the stages to state in order. On a stage failure the state
// from before that stage is retained; the run stops unless continue-on-error
// is enabled. The returned error joins every stage failure.
func (r *Runner) Run(ctx context.Context, probes *ProbeSet, state State, stages ...Stage) (Report, error) {
	report := Report{RunID: r.newID(), State: state}
	ctx = services.WithSource(services.WithRunID(ctx, report.RunID), sourcePath(probes))
	runLogger := logging.WithContext(ctx, r.logger)
	runLogger.Info("pipeline started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("stage_count", len(stages)),
	)

	var failures []error
	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			failures = append(failures, services.Wrap(services.ErrTimeout, "pipeline", "run", "run cancelled", err))
			break
		}
		record, next, err := r.apply(ctx, i, probes, report.State, stage)
		record.RunID = report.RunID
		report.Stages = append(report.Stages, record)
		if r.recorder != nil {
			if recErr := r.recorder.RecordStage(ctx, record); recErr != nil {
				runLogger.Warn("stage journal write failed",
					logging.String(logging.FieldEventType, "journal_write_failed"),
					logging.String(logging.FieldStage, record.Stage),
					logging.Error(recErr),
				)
			}
		}
		if err != nil {
			failures = append(failures, err)
			if !r.continueOnError {
				break
			}
			continue
		}
		report.State = next
	}

	runErr := errors.Join(failures...)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Bool("should_process", report.State.ShouldProcess),
		logging.Int("active_streams", len(report.State.Active())),
	}
	if runErr != nil {
		attrs = append(attrs, logging.Error(runErr))
		runLogger.Warn("pipeline finished with failures", logging.Args(attrs...)...)
	} else {
		runLogger.Info("pipeline finished", logging.Args(attrs...)...)
	}
	return report, runErr
}

func (r *Runner) apply(ctx context.Context, seq int, probes *ProbeSet, state State, stage Stage) (record StageRecord, next State, err error) {
	name := stage.Name()
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, r.logger)
	record = StageRecord{Sequence: seq, Stage: name}
	start := r.now()

	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	defer func() {
		if recovered := recover(); recovered != nil {
			err = services.Wrap(services.ErrValidation, name, "apply", "stage panicked", fmt.Errorf("%v", recovered))
			record.Err = err
			next = state
		}
		record.Duration = r.now().Sub(start)
	}()

	outcome, err := stage.Apply(stageCtx, probes, state.Clone())
	if err != nil {
		record.Err = err
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("error_kind", services.Classify(err)),
			logging.Error(err),
		)
		return record, state, err
	}

	record.Changed = outcome.Changed
	record.Reason = outcome.Reason
	if !outcome.Changed {
		record.Arguments = append([]string(nil), state.OutputArguments...)
		logger.Info("stage made no changes",
			logging.String(logging.FieldEventType, "stage_noop"),
			logging.String("reason", outcome.Reason),
		)
		return record, state, nil
	}

	record.Arguments = append([]string(nil), outcome.State.OutputArguments...)
	logger.Info("stage applied",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("reason", outcome.Reason),
		logging.Int("active_streams", len(outcome.State.Active())),
	)
	return record, outcome.State, nil
}

func sourcePath(probes *ProbeSet) string {
	if probes == nil {
		return ""
	}
	return probes.Path
}
