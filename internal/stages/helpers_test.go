package stages

import (
	"context"
	"testing"

	"muxplan/internal/media/ffprobe"
	"muxplan/internal/pipeline"
)

func probeSet(path, format string, streams ...ffprobe.Stream) *pipeline.ProbeSet {
	for i := range streams {
		streams[i].Index = i
	}
	return pipeline.NewProbeSet(path, ffprobe.Result{Streams: streams, Format: ffprobe.Format{FormatName: format}})
}

func videoTrack(codec string, width, height int) ffprobe.Stream {
	return ffprobe.Stream{CodecType: "video", CodecName: codec, Width: width, Height: height}
}

func audioTrack(codec, lang string, channels int, title string) ffprobe.Stream {
	tags := map[string]string{}
	if lang != "" {
		tags["language"] = lang
	}
	if title != "" {
		tags["title"] = title
	}
	return ffprobe.Stream{CodecType: "audio", CodecName: codec, Channels: channels, Tags: tags}
}

func subtitleTrack(codec, lang, title string) ffprobe.Stream {
	tags := map[string]string{}
	if lang != "" {
		tags["language"] = lang
	}
	if title != "" {
		tags["title"] = title
	}
	return ffprobe.Stream{CodecType: "subtitle", CodecName: codec, Tags: tags}
}

func withDisposition(stream ffprobe.Stream, flags ...string) ffprobe.Stream {
	stream.Disposition = make(map[string]int, len(flags))
	for _, flag := range flags {
		stream.Disposition[flag] = 1
	}
	return stream
}

func apply(t *testing.T, stage pipeline.Stage, probes *pipeline.ProbeSet, state pipeline.State) pipeline.Outcome {
	t.Helper()
	outcome, err := stage.Apply(context.Background(), probes, state)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", stage.Name(), err)
	}
	return outcome
}

func ids(plans []pipeline.Plan) []int {
	out := make([]int, 0, len(plans))
	for _, plan := range plans {
		out = append(out, plan.ID)
	}
	return out
}

func activeIDs(state pipeline.State) []int {
	return ids(state.Active())
}

func find(state pipeline.State, id int) int {
	for i, plan := range state.Streams {
		if plan.ID == id {
			return i
		}
	}
	return -1
}
