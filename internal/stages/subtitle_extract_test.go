package stages

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"muxplan/internal/pipeline"
	"muxplan/internal/services"
	"muxplan/internal/subtitles"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,000\nHello\n"

type fakeExtractor struct {
	requests []subtitles.Request
	failOn   int
	ocr      bool
}

func (f *fakeExtractor) Extract(_ context.Context, req subtitles.Request) error {
	f.requests = append(f.requests, req)
	if f.failOn > 0 && len(f.requests) == f.failOn {
		return errors.New("pgstosrt exited with status 1")
	}
	return os.WriteFile(req.Output, []byte(sampleSRT), 0o644)
}

func (f *fakeExtractor) OCRAvailable() bool { return f.ocr }

func extractProbes(dir string) *pipeline.ProbeSet {
	return probeSet(filepath.Join(dir, "Movie.mkv"), "matroska",
		videoTrack("h264", 1920, 1080),
		subtitleTrack("hdmv_pgs_subtitle", "eng", ""),
		subtitleTrack("ass", "eng", ""),
		subtitleTrack("hdmv_pgs_subtitle", "eng", "Commentary"),
		subtitleTrack("subrip", "fre", ""),
	)
}

func TestSubtitleExtractStagesOneSRTPerVariant(t *testing.T) {
	stagingDir := t.TempDir()
	probes := extractProbes(t.TempDir())
	fake := &fakeExtractor{}
	stage := NewSubtitleExtract(fake, stagingDir, nil, nil)

	outcome := apply(t, stage, probes, pipeline.State{})
	if !outcome.Changed {
		t.Fatalf("expected change, got %q", outcome.Reason)
	}
	if len(fake.requests) != 2 {
		t.Fatalf("expected 2 extractions, got %+v", fake.requests)
	}
	if fake.requests[0].StreamIndex != 2 || fake.requests[0].Codec != "ass" {
		t.Fatalf("text track should be preferred, got %+v", fake.requests[0])
	}
	if fake.requests[1].StreamIndex != 3 {
		t.Fatalf("commentary should use stream 3, got %+v", fake.requests[1])
	}

	workDir := filepath.Join(stagingDir, "srt_movie")
	wantInputs := []string{
		filepath.Join(workDir, "movie_eng_main.srt"),
		filepath.Join(workDir, "movie_eng_commentary.srt"),
	}
	state := outcome.State
	if !reflect.DeepEqual(state.AdditionalInputs, wantInputs) {
		t.Fatalf("AdditionalInputs = %v, want %v", state.AdditionalInputs, wantInputs)
	}
	wantTemp := append([]string{workDir}, wantInputs...)
	if !reflect.DeepEqual(state.TempFiles, wantTemp) {
		t.Fatalf("TempFiles = %v, want %v", state.TempFiles, wantTemp)
	}

	main := state.Streams[find(state, 5)]
	if main.Input != 1 || main.SourceIndex != pipeline.Unset || main.CodecName != "subrip" {
		t.Fatalf("unexpected plan %+v", main)
	}
	want := []string{"-map", "1:s:0?", "-c:s:4", "srt", "-metadata:s:s:4", "language=eng"}
	if got := pipeline.RenderPlan(state.Streams, main); !reflect.DeepEqual(got, want) {
		t.Fatalf("RenderPlan = %v, want %v", got, want)
	}
	commentary := state.Streams[find(state, 6)]
	if commentary.Input != 2 || commentary.Tag("title") != "Commentary" {
		t.Fatalf("unexpected commentary plan %+v", commentary)
	}
	if _, err := os.Stat(filepath.Join(workDir, ".muxplan.lock")); !os.IsNotExist(err) {
		t.Fatalf("lock file should be released, stat err = %v", err)
	}

	again := apply(t, stage, probes, state)
	if again.Changed || len(fake.requests) != 2 {
		t.Fatalf("second pass should be a no-op, got %q", again.Reason)
	}
}

func TestSubtitleExtractLanguageFilter(t *testing.T) {
	probes := extractProbes(t.TempDir())
	fake := &fakeExtractor{}
	outcome := apply(t, NewSubtitleExtract(fake, t.TempDir(), []string{"fre"}, nil), probes, pipeline.State{})
	if outcome.Changed || len(fake.requests) != 0 {
		t.Fatalf("french already has an SRT, got %q", outcome.Reason)
	}
}

func TestSubtitleExtractFailureLeavesNoFiles(t *testing.T) {
	stagingDir := t.TempDir()
	probes := extractProbes(t.TempDir())
	fake := &fakeExtractor{failOn: 2}
	_, err := NewSubtitleExtract(fake, stagingDir, nil, nil).Apply(context.Background(), probes, pipeline.State{})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(stagingDir, "srt_movie")); !os.IsNotExist(statErr) {
		t.Fatalf("staging dir should be removed, stat err = %v", statErr)
	}
}

func TestSubtitleExtractHealth(t *testing.T) {
	stage := NewSubtitleExtract(&fakeExtractor{}, t.TempDir(), nil, nil)
	if health := stage.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy without OCR")
	}
	stage = NewSubtitleExtract(&fakeExtractor{ocr: true}, t.TempDir(), nil, nil)
	if health := stage.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy, got %+v", health)
	}
}
