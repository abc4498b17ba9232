package services_test

import (
	"errors"
	"strings"
	"testing"

	"muxplan/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "subtitle_extract", "ocr", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"subtitle_extract", "ocr", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{nil, ""},
		{services.Wrap(services.ErrValidation, "reorder", "sort", "invalid", nil), "validation"},
		{services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", "exit 1", errors.New("io")), "external_tool"},
		{services.Wrap(services.ErrConfiguration, "config", "load", "bad", nil), "configuration"},
		{errors.New("plain"), "unknown"},
	}
	for _, tt := range tests {
		if got := services.Classify(tt.err); got != tt.expected {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.expected)
		}
	}
}

func TestErrorAs(t *testing.T) {
	err := services.Wrap(services.ErrTimeout, "subtitle_extract", "ocr", "", errors.New("deadline"))
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected *services.Error, got %T", err)
	}
	if svcErr.Stage != "subtitle_extract" || svcErr.Op != "ocr" {
		t.Fatalf("unexpected context %+v", svcErr)
	}
	if got := err.Error(); got != "timeout: subtitle_extract: ocr: deadline" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{services.Wrap(services.ErrConfiguration, "config", "load", "bad", nil), 2},
		{services.Wrap(services.ErrNotFound, "probe", "open", "missing", nil), 3},
		{services.Wrap(services.ErrExternalTool, "probe", "ffprobe", "exit 1", nil), 4},
		{errors.New("plain"), 1},
	}
	for _, tt := range tests {
		if got := services.ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
