package stages

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"muxplan/internal/pipeline"
)

func TestSubtitleConvertForMP4(t *testing.T) {
	probes := probeSet("movie.mp4", "mov,mp4,m4a,3gp,3g2,mj2",
		videoTrack("h264", 1920, 1080),
		subtitleTrack("subrip", "eng", ""),
		subtitleTrack("hdmv_pgs_subtitle", "eng", ""),
		subtitleTrack("mov_text", "spa", ""),
		subtitleTrack("subrip", "eng", "Commentary"),
		subtitleTrack("weird_codec", "fre", ""),
	)
	outcome := apply(t, NewSubtitleConvert(nil), probes, pipeline.State{})
	if !outcome.Changed {
		t.Fatalf("expected change, got %q", outcome.Reason)
	}
	if got := activeIDs(outcome.State); !reflect.DeepEqual(got, []int{0, 1, 3, 4, 5}) {
		t.Fatalf("active = %v, want [0 1 3 4 5]", got)
	}
	for _, id := range []int{1, 4, 5} {
		plan := outcome.State.Streams[find(outcome.State, id)]
		if codec, _ := pipeline.CodecValue(plan.OutputArgs); codec != "mov_text" {
			t.Fatalf("stream %d codec = %q, want mov_text", id, codec)
		}
	}
	spa := outcome.State.Streams[find(outcome.State, 3)]
	if pipeline.HasCodec(spa.OutputArgs) {
		t.Fatalf("accepted codec should be copied, got %v", spa.OutputArgs)
	}

	again := apply(t, NewSubtitleConvert(nil), probes, outcome.State)
	if again.Changed {
		t.Fatalf("second pass should be a no-op, got %q", again.Reason)
	}
}

func TestSubtitleConvertDropsCollisionsAfterConversion(t *testing.T) {
	probes := probeSet("movie.m4v", "mov,mp4,m4a,3gp,3g2,mj2",
		subtitleTrack("subrip", "eng", ""),
		subtitleTrack("ass", "en", "English"),
		withDisposition(subtitleTrack("subrip", "eng", ""), "forced"),
	)
	outcome := apply(t, NewSubtitleConvert(nil), probes, pipeline.State{})
	if got := activeIDs(outcome.State); !reflect.DeepEqual(got, []int{0, 2}) {
		t.Fatalf("active = %v, want [0 2]", got)
	}
}

func TestSubtitleConvertNoOpForMatroska(t *testing.T) {
	probes := probeSet("movie.mkv", "matroska", subtitleTrack("hdmv_pgs_subtitle", "eng", ""))
	if outcome := apply(t, NewSubtitleConvert(nil), probes, pipeline.State{}); outcome.Changed {
		t.Fatalf("expected no-op, got %q", outcome.Reason)
	}

	mp4Target := apply(t, NewSubtitleConvert(nil), probes, pipeline.State{Container: "mp4"})
	if !mp4Target.Changed || len(mp4Target.State.Active()) != 0 {
		t.Fatalf("explicit mp4 target should drop the bitmap track, got %q", mp4Target.Reason)
	}
}

func TestSubtitleConvertWarnsOnUnrecognisedCodec(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	probes := probeSet("movie.mp4", "mov,mp4,m4a,3gp,3g2,mj2",
		subtitleTrack("subrip", "eng", ""),
		subtitleTrack("weird_codec", "fre", ""),
	)
	outcome := apply(t, NewSubtitleConvert(logger), probes, pipeline.State{})
	if !outcome.Changed {
		t.Fatalf("expected change, got %q", outcome.Reason)
	}
	logs := buf.String()
	if got := strings.Count(logs, "subtitle_codec_unknown"); got != 1 {
		t.Fatalf("expected one unknown codec warning, got %d in %s", got, logs)
	}
	if !strings.Contains(logs, "weird_codec") {
		t.Fatalf("warning should name the codec: %s", logs)
	}
}
