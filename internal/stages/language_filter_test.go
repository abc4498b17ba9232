package stages

import (
	"reflect"
	"testing"

	"muxplan/internal/pipeline"
)

func TestAudioLanguageFilterExpandsOriginal(t *testing.T) {
	probes := probeSet("movie.mkv", "matroska",
		videoTrack("h264", 1920, 1080),
		audioTrack("aac", "jpn", 2, ""),
		audioTrack("aac", "en", 2, ""),
		audioTrack("aac", "fre", 2, ""),
	)
	outcome := apply(t, NewAudioLanguageFilter([]string{"original", "eng"}, nil), probes, pipeline.State{})
	if !outcome.Changed {
		t.Fatalf("expected change, got %q", outcome.Reason)
	}
	if got := activeIDs(outcome.State); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Fatalf("active = %v, want [0 1 2]", got)
	}
	if len(outcome.State.Streams) != 4 || !outcome.State.Streams[3].Removed {
		t.Fatal("removed plans must stay in the list flagged as removed")
	}
}

func TestLanguageFilterNoOps(t *testing.T) {
	probes := probeSet("movie.mkv", "matroska",
		audioTrack("aac", "eng", 2, ""),
		subtitleTrack("subrip", "eng", ""),
	)
	tests := []struct {
		name  string
		stage *LanguageFilter
	}{
		{"empty list", NewAudioLanguageFilter(nil, nil)},
		{"all allowed", NewAudioLanguageFilter([]string{"en"}, nil)},
		{"subtitles allowed", NewSubtitleLanguageFilter([]string{"eng"}, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := apply(t, tt.stage, probes, pipeline.State{})
			if outcome.Changed {
				t.Fatalf("expected no-op, got %q", outcome.Reason)
			}
		})
	}
}

func TestSubtitleLanguageFilterTreatsUntaggedAsUnd(t *testing.T) {
	probes := probeSet("movie.mkv", "matroska",
		subtitleTrack("subrip", "", ""),
		subtitleTrack("subrip", "eng", ""),
	)
	outcome := apply(t, NewSubtitleLanguageFilter([]string{"eng"}, nil), probes, pipeline.State{})
	if got := activeIDs(outcome.State); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("active = %v, want [1]", got)
	}

	keepUnd := apply(t, NewSubtitleLanguageFilter([]string{"eng", "und"}, nil), probes, pipeline.State{})
	if keepUnd.Changed {
		t.Fatalf("und listed explicitly should keep untagged tracks, got %q", keepUnd.Reason)
	}
}

func TestLanguageFilterHonoursLanguageDirective(t *testing.T) {
	probes := probeSet("movie.mkv", "matroska", audioTrack("aac", "", 2, ""))
	state := pipeline.State{Streams: pipeline.Seed(probes)}
	state.Streams[0].OutputArgs = []pipeline.Arg{
		pipeline.TypeFlag("-metadata:s", pipeline.TypeAudio), pipeline.Literal("language=ger"),
	}
	outcome := apply(t, NewAudioLanguageFilter([]string{"deu"}, nil), probes, state)
	if outcome.Changed {
		t.Fatalf("ger directive should satisfy deu, got %q", outcome.Reason)
	}
}
