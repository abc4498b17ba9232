package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownContainers = map[string]struct{}{
	"mkv": {}, "mp4": {}, "m4v": {}, "mov": {}, "webm": {}, "avi": {}, "ts": {},
}

// Validate ensures the configuration is usable. Stage names are checked by
// the stage registry, which owns them.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validatePrecedence("audio.precedence", c.Audio.Precedence); err != nil {
		return err
	}
	if err := c.validatePrecedence("subtitles.precedence", c.Subtitles.Precedence); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePipeline() error {
	if len(c.Pipeline.Stages) == 0 {
		return errors.New("pipeline.stages must include at least one stage")
	}
	if c.Pipeline.Container != "" {
		if _, ok := knownContainers[c.Pipeline.Container]; !ok {
			return fmt.Errorf("pipeline.container: unsupported value %q", c.Pipeline.Container)
		}
	}
	return nil
}

func (c *Config) validatePrecedence(key, value string) error {
	switch value {
	case PrecedenceCodec, PrecedenceLanguage:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", key, PrecedenceCodec, PrecedenceLanguage, value)
	}
}

func (c *Config) validateTools() error {
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		return errors.New("tools.ffmpeg must be set")
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		return errors.New("tools.ffprobe must be set")
	}
	if c.Tools.ExtractTimeout <= 0 {
		return errors.New("tools.extract_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
