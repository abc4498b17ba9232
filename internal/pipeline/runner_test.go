package pipeline

import (
	"context"
	"errors"
	"testing"

	"muxplan/internal/services"
)

type funcStage struct {
	name  string
	apply func(*ProbeSet, State) (Outcome, error)
}

func (s funcStage) Name() string { return s.name }

func (s funcStage) Apply(_ context.Context, probes *ProbeSet, state State) (Outcome, error) {
	return s.apply(probes, state)
}

type memoryRecorder struct {
	records []StageRecord
}

func (m *memoryRecorder) RecordStage(_ context.Context, record StageRecord) error {
	m.records = append(m.records, record)
	return nil
}

func removeFirstAudio() Stage {
	return funcStage{name: "drop_audio", apply: func(probes *ProbeSet, state State) (Outcome, error) {
		state.EnsureSeeded(probes)
		for i := range state.Streams {
			if state.Streams[i].Type == TypeAudio && !state.Streams[i].Removed {
				state.Streams[i].Removed = true
				return Changed(state, "dropped audio"), nil
			}
		}
		return Unchanged(state, "no audio"), nil
	}}
}

func failing(name string) Stage {
	return funcStage{name: name, apply: func(_ *ProbeSet, state State) (Outcome, error) {
		state.Streams = nil
		return Outcome{}, services.Wrap(services.ErrExternalTool, name, "run", "tool failed", errors.New("exit 1"))
	}}
}

func TestRunnerAppliesStagesInOrder(t *testing.T) {
	probes := probeSet("movie.mkv", "matroska", videoStream(), audioStream("ac3", "eng", 6), audioStream("aac", "eng", 2))
	recorder := &memoryRecorder{}
	runner := NewRunner(nil, WithRecorder(recorder), WithRunID("run-1"))

	report, err := runner.Run(context.Background(), probes, State{}, removeFirstAudio(), removeFirstAudio(), removeFirstAudio())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.RunID != "run-1" {
		t.Fatalf("unexpected run id %q", report.RunID)
	}
	if len(report.State.Active()) != 1 || !report.State.ShouldProcess {
		t.Fatalf("unexpected final state: %+v", report.State)
	}
	if len(recorder.records) != 3 {
		t.Fatalf("expected 3 journal records, got %d", len(recorder.records))
	}
	if !recorder.records[0].Changed || recorder.records[2].Changed {
		t.Fatalf("unexpected change flags: %+v", recorder.records)
	}
	if recorder.records[2].Reason != "no audio" {
		t.Fatalf("unexpected no-op reason %q", recorder.records[2].Reason)
	}
	if !report.Changed() {
		t.Fatal("expected report to be changed")
	}
}

func TestRunnerKeepsStateOnFailure(t *testing.T) {
	probes := probeSet("movie.mkv", "matroska", videoStream(), audioStream("ac3", "eng", 6))
	runner := NewRunner(nil)

	report, err := runner.Run(context.Background(), probes, State{}, removeFirstAudio(), failing("broken"), removeFirstAudio())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if len(report.Stages) != 2 {
		t.Fatalf("expected run to stop after failure, got %d records", len(report.Stages))
	}
	if len(report.State.Streams) != 2 || !report.State.Streams[1].Removed {
		t.Fatalf("expected state from before the failed stage, got %+v", report.State.Streams)
	}
}

func TestRunnerContinueOnError(t *testing.T) {
	probes := probeSet("movie.mkv", "matroska", videoStream(), audioStream("ac3", "eng", 6), audioStream("aac", "eng", 2))
	runner := NewRunner(nil, WithContinueOnError(true))

	report, err := runner.Run(context.Background(), probes, State{}, removeFirstAudio(), failing("broken"), removeFirstAudio())
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(report.Stages) != 3 {
		t.Fatalf("expected all stages to run, got %d", len(report.Stages))
	}
	if len(report.State.Active()) != 1 {
		t.Fatalf("expected both audio streams removed, got %+v", report.State.Streams)
	}
}

func TestRunnerDoesNotMutateInput(t *testing.T) {
	probes := probeSet("movie.mkv", "matroska", videoStream(), audioStream("ac3", "eng", 6))
	input := State{}
	input.EnsureSeeded(probes)
	runner := NewRunner(nil)

	if _, err := runner.Run(context.Background(), probes, input, removeFirstAudio()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if input.Streams[1].Removed {
		t.Fatal("runner mutated the caller's state")
	}
}

func TestRunnerStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := NewRunner(nil)
	_, err := runner.Run(ctx, probeSet("movie.mkv", "matroska", videoStream()), State{}, removeFirstAudio())
	if !errors.Is(err, services.ErrTimeout) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}
