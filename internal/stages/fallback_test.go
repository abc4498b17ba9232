package stages

import (
	"reflect"
	"testing"

	"muxplan/internal/pipeline"
)

func TestAudioFallbackKeepsMatchingFallback(t *testing.T) {
	probes := probeSet("movie.mkv", "matroska",
		videoTrack("hevc", 1920, 1080),
		audioTrack("truehd", "eng", 8, "English TrueHD 7.1"),
		audioTrack("eac3", "eng", 6, "English E-AC-3 5.1"),
	)
	outcome := apply(t, NewAudioFallback("", nil), probes, pipeline.State{})
	if outcome.Changed || outcome.State.ShouldProcess {
		t.Fatalf("expected no-op, got changed=%v reason=%q", outcome.Changed, outcome.Reason)
	}
}

func TestAudioFallbackSynthesizesEAC3ForEightChannelDTS(t *testing.T) {
	probes := probeSet("movie.mka", "matroska", audioTrack("dts", "eng", 8, ""))
	outcome := apply(t, NewAudioFallback("eac3", nil), probes, pipeline.State{})
	if !outcome.Changed || !outcome.State.ShouldProcess {
		t.Fatalf("expected change, got %q", outcome.Reason)
	}
	if got := ids(outcome.State.Streams); !reflect.DeepEqual(got, []int{1, 0}) {
		t.Fatalf("expected fallback inserted before source, got ids %v", got)
	}
	fallback := outcome.State.Streams[0]
	if fallback.CodecName != "eac3" || fallback.Channels != 6 || fallback.Tag("language") != "eng" {
		t.Fatalf("unexpected fallback plan %+v", fallback)
	}
	want := []string{
		"-map", "0:a:0?", "-c:a:0", "eac3", "-b:a:0", "896k", "-ac:a:0", "6", "-disposition:a:0", "0",
		"-map", "0:a:0?", "-c:a:1", "copy",
	}
	if !reflect.DeepEqual(outcome.State.OutputArguments, want) {
		t.Fatalf("OutputArguments = %v\nwant %v", outcome.State.OutputArguments, want)
	}
}

func TestAudioFallbackMatching(t *testing.T) {
	tests := []struct {
		name      string
		hdTitle   string
		codec     string
		lang      string
		channels  int
		title     string
		scheduled bool
	}{
		{name: "same language and title", hdTitle: "English", codec: "ac3", lang: "eng", channels: 2, title: "English AC-3", scheduled: false},
		{name: "untagged candidate language", hdTitle: "English", codec: "aac", lang: "", channels: 2, scheduled: false},
		{name: "language mismatch", hdTitle: "English", codec: "eac3", lang: "fre", channels: 2, scheduled: true},
		{name: "commentary candidate", hdTitle: "English", codec: "ac3", lang: "eng", channels: 2, title: "Director's Commentary", scheduled: true},
		{name: "upmixed candidate", hdTitle: "English", codec: "eac3", lang: "eng", channels: 6, scheduled: true},
		{name: "compatibility title skips channel checks", codec: "eac3", lang: "eng", channels: 6, title: "Compatibility", scheduled: false},
		{name: "different title", hdTitle: "English", codec: "eac3", lang: "eng", channels: 2, title: "Spanish", scheduled: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probes := probeSet("movie.mkv", "matroska",
				audioTrack("truehd", "eng", 2, tt.hdTitle),
				audioTrack(tt.codec, tt.lang, tt.channels, tt.title),
			)
			outcome := apply(t, NewAudioFallback("", nil), probes, pipeline.State{})
			if outcome.Changed != tt.scheduled {
				t.Fatalf("changed = %v, want %v (%s)", outcome.Changed, tt.scheduled, outcome.Reason)
			}
		})
	}
}

func TestAudioFallbackBitrateTierAndTags(t *testing.T) {
	stream := audioTrack("truehd", "eng", 6, "Main")
	stream.Tags["BPS"] = "3500000"
	probes := probeSet("movie.mkv", "matroska", stream)
	outcome := apply(t, NewAudioFallback("", nil), probes, pipeline.State{})
	fallback := outcome.State.Streams[0]
	if got := bitrateOf(fallback); got != "640k" {
		t.Fatalf("bitrate = %q, want 640k", got)
	}
	if _, ok := pipeline.DirectiveValue(fallback.OutputArgs, "-ac:a"); ok {
		t.Fatal("six-channel source must not be downmixed")
	}
	if fallback.Tag("title") != "Main" || fallback.Tag("BPS") != "3500000" {
		t.Fatalf("tags not inherited: %v", fallback.Tags)
	}
	if value, _ := pipeline.DispositionValue(fallback.OutputArgs, pipeline.TypeAudio); value != "0" {
		t.Fatalf("disposition = %q, want 0", value)
	}
}

func TestAudioFallbackPreservesForcedFlag(t *testing.T) {
	probes := probeSet("movie.mka", "matroska", withDisposition(audioTrack("truehd", "eng", 8, ""), "forced"))
	outcome := apply(t, NewAudioFallback("eac3", nil), probes, pipeline.State{})
	if !outcome.Changed {
		t.Fatalf("expected change, got %q", outcome.Reason)
	}
	want := []string{
		"-map", "0:a:0?", "-c:a:0", "eac3", "-b:a:0", "896k", "-ac:a:0", "6", "-disposition:a:0", "forced",
		"-map", "0:a:0?", "-c:a:1", "copy",
	}
	if !reflect.DeepEqual(outcome.State.OutputArguments, want) {
		t.Fatalf("OutputArguments = %v\nwant %v", outcome.State.OutputArguments, want)
	}
}
