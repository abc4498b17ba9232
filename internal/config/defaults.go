package config

const (
	defaultConfigPath            = "~/.config/muxplan/config.toml"
	defaultStagingDir            = "~/.cache/muxplan/staging"
	defaultLogDir                = "~/.local/share/muxplan/logs"
	defaultHistoryDB             = "~/.local/share/muxplan/history.db"
	defaultStagingRetentionHours = 24
	defaultFFmpeg                = "ffmpeg"
	defaultFFprobe               = "ffprobe"
	defaultDotnet                = "dotnet"
	defaultExtractTimeout        = 1800
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultFallbackCodec         = "eac3"

	// PrecedenceCodec ranks streams by codec first, then language.
	PrecedenceCodec = "codec"
	// PrecedenceLanguage ranks streams by language first, then codec.
	PrecedenceLanguage = "language"
)

// DefaultStages is the stage chain used when the configuration names none.
var DefaultStages = []string{
	"audio_language_filter",
	"audio_fallback",
	"audio_reorder",
	"subtitle_language_filter",
	"subtitle_dedupe",
	"subtitle_reorder",
	"subtitle_convert",
	"video_title",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:            defaultStagingDir,
			LogDir:                defaultLogDir,
			HistoryDB:             defaultHistoryDB,
			StagingRetentionHours: defaultStagingRetentionHours,
		},
		Tools: Tools{
			FFmpeg:         defaultFFmpeg,
			FFprobe:        defaultFFprobe,
			Dotnet:         defaultDotnet,
			ExtractTimeout: defaultExtractTimeout,
		},
		Pipeline: Pipeline{
			Stages:        append([]string(nil), DefaultStages...),
			RecordHistory: true,
		},
		Audio: Audio{
			CodecOrder:    []string{"eac3", "ac3", "aac", "truehd", "dts", "dtshd"},
			LanguageOrder: []string{"original", "eng"},
			Precedence:    PrecedenceCodec,
			FallbackCodec: defaultFallbackCodec,
		},
		Subtitles: Subtitles{
			CodecOrder:    []string{"subrip", "mov_text", "ass", "hdmv_pgs_subtitle", "dvd_subtitle"},
			LanguageOrder: []string{"original", "eng"},
			Precedence:    PrecedenceLanguage,
			FixEnglishOCR: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
