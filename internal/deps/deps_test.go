package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestCheckRequirements(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	writeStub(t, present)
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := Check(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" || results[0].Path != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || !results[2].Optional || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank result %#v", results[2])
	}
}

func TestResolveSiblingFindsBundledBinary(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, executableName("ffmpeg"))
	probe := filepath.Join(dir, executableName("muxplan-test-ffprobe"))
	writeStub(t, ffmpeg)
	writeStub(t, probe)

	if got := ResolveSibling("muxplan-test-ffprobe", ffmpeg); got != probe {
		t.Fatalf("ResolveSibling = %q, want %q", got, probe)
	}
	if got := ResolveSibling("muxplan-test-missing", ffmpeg); got != "muxplan-test-missing" {
		t.Fatalf("missing sibling should fall back to the name, got %q", got)
	}
	if got := ResolveSibling("", ffmpeg); got != "" {
		t.Fatalf("blank name should stay blank, got %q", got)
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	dll := filepath.Join(dir, "PgsToSrt.dll")
	if err := os.WriteFile(dll, []byte("MZ"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tests := []struct {
		name      string
		path      string
		available bool
	}{
		{"present", dll, true},
		{"missing", filepath.Join(dir, "nope.dll"), false},
		{"directory", dir, false},
		{"unset", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := Check([]Requirement{{Name: "PgsToSrt", Command: tt.path, Kind: File, Optional: true}})[0]
			if status.Available != tt.available {
				t.Fatalf("Available = %v, want %v (%s)", status.Available, tt.available, status.Detail)
			}
			if tt.available && status.Path != tt.path {
				t.Fatalf("Path = %q, want %q", status.Path, tt.path)
			}
			if !tt.available && status.Detail == "" {
				t.Fatal("expected detail for unavailable file")
			}
		})
	}
}
