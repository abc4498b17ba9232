package stages

import (
	"testing"

	"muxplan/internal/pipeline"
)

func TestMetadataRemoveClearsTaggedStreams(t *testing.T) {
	videoStream := videoTrack("h264", 1920, 1080)
	videoStream.Tags = map[string]string{"title": "Movie.2020.1080p.BluRay"}
	tagged := audioTrack("aac", "eng", 2, "")
	tagged.Tags["handler_name"] = "SoundHandler"
	probes := probeSet("movie.mkv", "matroska",
		videoStream,
		tagged,
		audioTrack("ac3", "eng", 6, ""),
		subtitleTrack("subrip", "eng", "English"),
	)

	outcome := apply(t, NewMetadataRemove(true, true, nil), probes, pipeline.State{})
	if !outcome.Changed {
		t.Fatalf("expected change, got %q", outcome.Reason)
	}
	streams := outcome.State.Streams
	for _, pos := range []int{0, 1} {
		plan := streams[pos]
		for _, key := range []string{"title", "handler_name"} {
			if value, ok := pipeline.MetadataValue(plan.OutputArgs, plan.Type, key); !ok || value != "" {
				t.Fatalf("stream %d %s = %q (%v), want cleared", plan.ID, key, value, ok)
			}
		}
	}
	if len(streams[2].OutputArgs) != 0 {
		t.Fatalf("untagged audio must be left alone, got %v", streams[2].OutputArgs)
	}
	if len(streams[3].OutputArgs) != 0 {
		t.Fatalf("subtitles are never cleared, got %v", streams[3].OutputArgs)
	}

	again := apply(t, NewMetadataRemove(true, true, nil), probes, outcome.State)
	if again.Changed {
		t.Fatalf("second pass should be a no-op, got %q", again.Reason)
	}
}

func TestMetadataRemoveRespectsTargets(t *testing.T) {
	videoStream := videoTrack("h264", 1920, 1080)
	videoStream.Tags = map[string]string{"title": "Movie"}
	probes := probeSet("movie.mkv", "matroska", videoStream, audioTrack("aac", "eng", 2, "Stereo"))

	if outcome := apply(t, NewMetadataRemove(false, false, nil), probes, pipeline.State{}); outcome.Changed {
		t.Fatalf("nothing requested, got %q", outcome.Reason)
	}
	outcome := apply(t, NewMetadataRemove(false, true, nil), probes, pipeline.State{})
	if !outcome.Changed {
		t.Fatalf("expected audio change, got %q", outcome.Reason)
	}
	if len(outcome.State.Streams[0].OutputArgs) != 0 {
		t.Fatalf("video must be untouched, got %v", outcome.State.Streams[0].OutputArgs)
	}
	want := []string{"-map", "0:a:0?", "-c:a:0", "copy", "-metadata:s:a:0", "title=", "-metadata:s:a:0", "handler_name="}
	got := outcome.State.OutputArguments[4:]
	if len(got) != len(want) {
		t.Fatalf("OutputArguments = %v", outcome.State.OutputArguments)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("OutputArguments = %v, want suffix %v", outcome.State.OutputArguments, want)
		}
	}
}
