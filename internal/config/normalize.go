package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizePipeline()
	c.normalizeAudio()
	c.normalizeSubtitles()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if c.Paths.StagingRetentionHours <= 0 {
		c.Paths.StagingRetentionHours = defaultStagingRetentionHours
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = defaultString(c.Tools.FFmpeg, defaultFFmpeg)
	c.Tools.FFprobe = defaultString(c.Tools.FFprobe, defaultFFprobe)
	c.Tools.Dotnet = defaultString(c.Tools.Dotnet, defaultDotnet)
	c.Tools.PgsToSrt = strings.TrimSpace(c.Tools.PgsToSrt)
	if c.Tools.PgsToSrt == "" {
		if value, ok := os.LookupEnv("PGSTOSRT_DLL"); ok {
			c.Tools.PgsToSrt = strings.TrimSpace(value)
		}
	}
	c.Tools.Tessdata = strings.TrimSpace(c.Tools.Tessdata)
	if c.Tools.Tessdata == "" {
		if value, ok := os.LookupEnv("TESSDATA_PREFIX"); ok {
			c.Tools.Tessdata = strings.TrimSpace(value)
		}
	}
	if c.Tools.ExtractTimeout <= 0 {
		c.Tools.ExtractTimeout = defaultExtractTimeout
	}
}

func (c *Config) normalizePipeline() {
	c.Pipeline.Stages = normalizeList(c.Pipeline.Stages)
	c.Pipeline.Container = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Pipeline.Container), "."))
}

func (c *Config) normalizeAudio() {
	c.Audio.Languages = normalizeList(c.Audio.Languages)
	c.Audio.CodecOrder = normalizeList(c.Audio.CodecOrder)
	c.Audio.LanguageOrder = normalizeList(c.Audio.LanguageOrder)
	c.Audio.Precedence = NormalizePrecedence(c.Audio.Precedence, PrecedenceCodec)
	c.Audio.FallbackCodec = strings.ToLower(defaultString(c.Audio.FallbackCodec, defaultFallbackCodec))
}

func (c *Config) normalizeSubtitles() {
	c.Subtitles.Languages = normalizeList(c.Subtitles.Languages)
	c.Subtitles.CodecOrder = normalizeList(c.Subtitles.CodecOrder)
	c.Subtitles.LanguageOrder = normalizeList(c.Subtitles.LanguageOrder)
	c.Subtitles.ExtractLanguages = normalizeList(c.Subtitles.ExtractLanguages)
	c.Subtitles.Precedence = NormalizePrecedence(c.Subtitles.Precedence, PrecedenceLanguage)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// NormalizePrecedence accepts "codec", "language", and the long labels
// "Codec Order" / "language_order". Unknown values are kept for Validate.
func NormalizePrecedence(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.TrimRight(strings.TrimSuffix(value, "order"), " _-")
	if value == "" {
		return fallback
	}
	return value
}

func normalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func defaultString(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
