package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDirName(t *testing.T) {
	tests := map[string]string{
		"/media/Movie (2020).mkv": "srt_movie_2020",
		"episode.mp4":             "srt_episode",
		"":                        "srt_unknown",
	}
	for source, want := range tests {
		if got := DirName(source); got != want {
			t.Errorf("DirName(%q) = %q, want %q", source, got, want)
		}
	}
}

func TestOpenLocksWorkspace(t *testing.T) {
	root := t.TempDir()
	ws, err := Open(context.Background(), root, "/media/movie.mkv")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !ws.Created() {
		t.Fatal("expected workspace to be newly created")
	}
	if got := ws.Path("Movie ENG main.SRT"); got != filepath.Join(root, "srt_movie", "movie_eng_main.srt") {
		t.Fatalf("unexpected staged path %q", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := Open(ctx, root, "/media/movie.mkv"); err == nil {
		t.Fatal("expected second open to fail while locked")
	}

	if err := ws.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	again, err := Open(context.Background(), root, "/media/movie.mkv")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if again.Created() {
		t.Fatal("reopened workspace should not report creation")
	}
	_ = again.Close()
}

func TestDiscardRemovesCreatedDirectory(t *testing.T) {
	root := t.TempDir()
	ws, err := Open(context.Background(), root, "movie.mkv")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := os.WriteFile(ws.Path("a.srt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ws.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Fatal("expected workspace directory removed")
	}
}
