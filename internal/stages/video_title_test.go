package stages

import (
	"reflect"
	"testing"

	"muxplan/internal/media/ffprobe"
	"muxplan/internal/pipeline"
)

func dolbyVisionStream() ffprobe.Stream {
	return ffprobe.Stream{
		CodecType:     "video",
		CodecName:     "hevc",
		Width:         3840,
		Height:        2160,
		ColorTransfer: "smpte2084",
		SideDataList: []ffprobe.SideData{{
			Type:   "DOVI configuration record",
			Values: map[string]int{"dv_profile": 8, "dv_bl_signal_compatibility_id": 4},
		}},
	}
}

func TestVideoTitleWritesLabel(t *testing.T) {
	const label = "4K HEVC Dolby Vision Profile 8.4 (HDR10)"
	tests := []struct {
		name      string
		path      string
		format    string
		container string
		key       string
	}{
		{"matroska uses title", "movie.mkv", "matroska", "", "title"},
		{"mp4 uses handler name", "movie.mp4", "mov,mp4,m4a,3gp,3g2,mj2", "", "handler_name"},
		{"explicit target wins", "movie.mp4", "mov,mp4,m4a,3gp,3g2,mj2", "mkv", "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probes := probeSet(tt.path, tt.format, dolbyVisionStream(), audioTrack("eac3", "eng", 6, ""))
			outcome := apply(t, NewVideoTitle(nil), probes, pipeline.State{Container: tt.container})
			if !outcome.Changed {
				t.Fatalf("expected change, got %q", outcome.Reason)
			}
			value, ok := pipeline.MetadataValue(outcome.State.Streams[0].OutputArgs, pipeline.TypeVideo, tt.key)
			if !ok || value != label {
				t.Fatalf("%s = %q (%v), want %q", tt.key, value, ok, label)
			}
			want := []string{"-map", "0:v:0", "-c:v:0", "copy", "-metadata:s:v:0", tt.key + "=" + label}
			if got := outcome.State.OutputArguments[:6]; !reflect.DeepEqual(got, want) {
				t.Fatalf("OutputArguments = %v, want prefix %v", got, want)
			}

			again := apply(t, NewVideoTitle(nil), probes, outcome.State)
			if again.Changed {
				t.Fatalf("second pass should be a no-op, got %q", again.Reason)
			}
		})
	}
}

func TestVideoTitleSkipsMatchingTitleAndCoverArt(t *testing.T) {
	stream := videoTrack("h264", 1920, 1080)
	stream.Tags = map[string]string{"title": "1080p H264 SDR"}
	cover := withDisposition(videoTrack("mjpeg", 600, 900), "attached_pic")
	probes := probeSet("movie.mkv", "matroska", stream, cover)

	outcome := apply(t, NewVideoTitle(nil), probes, pipeline.State{})
	if outcome.Changed {
		t.Fatalf("expected no-op, got %q", outcome.Reason)
	}
}

func TestVideoTitleReplacesOnlyItsKey(t *testing.T) {
	probes := probeSet("movie.mkv", "matroska", videoTrack("h264", 1280, 720))
	state := pipeline.State{Streams: pipeline.Seed(probes)}
	state.Streams[0].OutputArgs = []pipeline.Arg{
		pipeline.TypeFlag("-metadata:s", pipeline.TypeVideo), pipeline.Literal("title=Old"),
		pipeline.TypeFlag("-metadata:s", pipeline.TypeVideo), pipeline.Literal("language=eng"),
	}
	outcome := apply(t, NewVideoTitle(nil), probes, state)
	args := outcome.State.Streams[0].OutputArgs
	if value, _ := pipeline.MetadataValue(args, pipeline.TypeVideo, "title"); value != "720p H264 SDR" {
		t.Fatalf("title = %q", value)
	}
	if value, ok := pipeline.MetadataValue(args, pipeline.TypeVideo, "language"); !ok || value != "eng" {
		t.Fatalf("language directive lost: %v", args)
	}
	if len(args) != 4 {
		t.Fatalf("expected one title directive, got %v", args)
	}
}
