package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	stagingDir string
	historyDB  string
	binDir     string
}

// setupCLITestEnv writes a config whose paths all live under a temp dir and
// whose ffmpeg/ffprobe point at stub scripts.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		stagingDir: filepath.Join(base, "staging"),
		historyDB:  filepath.Join(base, "data", "history.db"),
		binDir:     filepath.Join(base, "bin"),
	}
	if err := os.MkdirAll(env.binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		stub := filepath.Join(env.binDir, name)
		if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}

	content := fmt.Sprintf(`[paths]
staging_dir = %q
log_dir = %q
history_db = %q

[tools]
ffmpeg = %q
ffprobe = %q

[logging]
level = "error"
`, env.stagingDir, filepath.Join(base, "logs"), env.historyDB,
		filepath.Join(env.binDir, "ffmpeg"), filepath.Join(env.binDir, "ffprobe"))
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) writeProbe(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write probe: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	fullArgs := append([]string{}, args...)
	if configPath != "" {
		fullArgs = append(fullArgs, "--config", configPath)
	}
	cmd.SetArgs(fullArgs)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", needle, haystack)
	}
}

// movieProbe has an HD audio track with no compatible fallback, so the
// default chain plans a change.
const movieProbe = `{
  "streams": [
    {"index": 0, "codec_name": "hevc", "codec_type": "video", "width": 3840, "height": 2160,
     "color_transfer": "smpte2084", "tags": {"language": "eng"}, "disposition": {"default": 1}},
    {"index": 1, "codec_name": "truehd", "codec_type": "audio", "channels": 8,
     "channel_layout": "7.1", "tags": {"language": "eng", "title": "TrueHD 7.1"},
     "disposition": {"default": 1}},
    {"index": 2, "codec_name": "subrip", "codec_type": "subtitle",
     "tags": {"language": "eng"}, "disposition": {"default": 0}}
  ],
  "format": {"filename": "/media/movie.mkv", "format_name": "matroska,webm", "nb_streams": 3}
}`

// cleanProbe is already in the shape the default chain produces.
const cleanProbe = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1280, "height": 720,
     "tags": {"title": "720p H264 SDR"}, "disposition": {"default": 1}},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "channels": 2,
     "tags": {"language": "eng"}, "disposition": {"default": 1}}
  ],
  "format": {"filename": "/media/clean.mkv", "format_name": "matroska,webm", "nb_streams": 2}
}`
