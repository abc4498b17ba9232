package stages

import (
	"reflect"
	"testing"

	"muxplan/internal/media/ffprobe"
	"muxplan/internal/pipeline"
)

func TestSubtitleDedupePrefersDefault(t *testing.T) {
	probes := probeSet("movie.mkv", "matroska",
		videoTrack("h264", 1920, 1080),
		subtitleTrack("subrip", "eng", ""),
		withDisposition(subtitleTrack("subrip", "eng", ""), "default"),
		subtitleTrack("subrip", "spa", ""),
	)
	outcome := apply(t, NewSubtitleDedupe(nil), probes, pipeline.State{})
	if !outcome.Changed {
		t.Fatalf("expected change, got %q", outcome.Reason)
	}
	if got := activeIDs(outcome.State); !reflect.DeepEqual(got, []int{0, 2, 3}) {
		t.Fatalf("active = %v, want [0 2 3]", got)
	}
}

func TestSubtitleDedupeKeepsFirstWithoutDefault(t *testing.T) {
	probes := probeSet("movie.mkv", "matroska",
		subtitleTrack("subrip", "eng", ""),
		subtitleTrack("subrip", "en", ""),
		subtitleTrack("hdmv_pgs_subtitle", "eng", ""),
		subtitleTrack("subrip", "eng", "SDH"),
	)
	outcome := apply(t, NewSubtitleDedupe(nil), probes, pipeline.State{})
	if got := activeIDs(outcome.State); !reflect.DeepEqual(got, []int{0, 2, 3}) {
		t.Fatalf("active = %v, want [0 2 3]", got)
	}
}

func TestSubtitleDedupeHandlerNames(t *testing.T) {
	handler := func(name string) ffprobe.Stream {
		stream := subtitleTrack("mov_text", "eng", "")
		stream.Tags["handler_name"] = name
		return stream
	}
	tests := []struct {
		name     string
		path     string
		format   string
		handlers []string
		want     []int
	}{
		{"placeholder handlers collapse", "movie.mp4", "mov,mp4,m4a,3gp,3g2,mj2", []string{"SubtitleHandler", ""}, []int{0}},
		{"distinct handlers survive", "movie.mp4", "mov,mp4,m4a,3gp,3g2,mj2", []string{"English", "English SDH"}, []int{0, 1}},
		{"handlers ignored outside mp4", "movie.mkv", "matroska", []string{"English", "English SDH"}, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probes := probeSet(tt.path, tt.format, handler(tt.handlers[0]), handler(tt.handlers[1]))
			outcome := apply(t, NewSubtitleDedupe(nil), probes, pipeline.State{})
			if got := activeIDs(outcome.State); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("active = %v, want %v", got, tt.want)
			}
		})
	}
}
