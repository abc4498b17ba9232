package history

import (
	"context"

	"muxplan/internal/media/ffprobe"
	"muxplan/internal/pipeline"
)

type noopStage struct{}

func (noopStage) Name() string { return "noop" }

func (noopStage) Apply(_ context.Context, _ *pipeline.ProbeSet, state pipeline.State) (pipeline.Outcome, error) {
	return pipeline.Unchanged(state, "nothing to do"), nil
}

func probeResult() ffprobe.Result {
	return ffprobe.Result{
		Streams: []ffprobe.Stream{{Index: 0, CodecType: "video", CodecName: "h264"}},
		Format:  ffprobe.Format{FormatName: "matroska"},
	}
}
