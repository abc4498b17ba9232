package pipeline

import "muxplan/internal/media/ffprobe"

func probeSet(path, format string, streams ...ffprobe.Stream) *ProbeSet {
	for i := range streams {
		streams[i].Index = i
	}
	return NewProbeSet(path, ffprobe.Result{Streams: streams, Format: ffprobe.Format{FormatName: format}})
}

func videoStream() ffprobe.Stream {
	return ffprobe.Stream{CodecType: "video", CodecName: "hevc", Width: 1920, Height: 1080}
}

func audioStream(codec, lang string, channels int) ffprobe.Stream {
	return ffprobe.Stream{CodecType: "audio", CodecName: codec, Channels: channels, Tags: map[string]string{"language": lang}}
}

func subtitleStream(codec, lang string) ffprobe.Stream {
	return ffprobe.Stream{CodecType: "subtitle", CodecName: codec, Tags: map[string]string{"language": lang}}
}
