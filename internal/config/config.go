package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"muxplan/internal/deps"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	StagingDir            string `toml:"staging_dir"`
	LogDir                string `toml:"log_dir"`
	HistoryDB             string `toml:"history_db"`
	StagingRetentionHours int    `toml:"staging_retention_hours"`
}

// Tools contains external binaries used for probing and subtitle extraction.
type Tools struct {
	FFmpeg         string `toml:"ffmpeg"`
	FFprobe        string `toml:"ffprobe"`
	Dotnet         string `toml:"dotnet"`
	PgsToSrt       string `toml:"pgstosrt"`
	Tessdata       string `toml:"tessdata"`
	ExtractTimeout int    `toml:"extract_timeout"`
}

// Pipeline selects and orders the stages applied to each file.
type Pipeline struct {
	Stages          []string `toml:"stages"`
	Container       string   `toml:"container"`
	ContinueOnError bool     `toml:"continue_on_error"`
	RecordHistory   bool     `toml:"record_history"`
}

// Audio contains settings for the audio stages.
type Audio struct {
	Languages     []string `toml:"languages"`
	CodecOrder    []string `toml:"codec_order"`
	LanguageOrder []string `toml:"language_order"`
	Precedence    string   `toml:"precedence"`
	FallbackCodec string   `toml:"fallback_codec"`
}

// Subtitles contains settings for the subtitle stages.
type Subtitles struct {
	Languages        []string `toml:"languages"`
	CodecOrder       []string `toml:"codec_order"`
	LanguageOrder    []string `toml:"language_order"`
	Precedence       string   `toml:"precedence"`
	ExtractLanguages []string `toml:"extract_languages"`
	FixEnglishOCR    bool     `toml:"fix_english_ocr"`
}

// Metadata contains settings for the metadata cleanup stage.
type Metadata struct {
	RemoveVideo bool `toml:"remove_video"`
	RemoveAudio bool `toml:"remove_audio"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for muxplan.
//
// Configuration sections:
//   - Paths: staging, log, and journal locations
//   - Tools: ffmpeg/ffprobe and the OCR toolchain
//   - Pipeline: stage chain, target container, failure policy
//   - Audio / Subtitles: filter, ordering, and conversion preferences
//   - Metadata: title and handler cleanup
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Tools     Tools     `toml:"tools"`
	Pipeline  Pipeline  `toml:"pipeline"`
	Audio     Audio     `toml:"audio"`
	Subtitles Subtitles `toml:"subtitles"`
	Metadata  Metadata  `toml:"metadata"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("muxplan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the staging and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir, filepath.Dir(c.Paths.HistoryDB)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable, falling back to one bundled
// next to ffmpeg when the configured name is not on PATH.
func (c *Config) FFprobeBinary() string {
	return deps.ResolveSibling(c.Tools.FFprobe, c.Tools.FFmpeg)
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return c.Tools.FFmpeg
}

// ExtractTimeout bounds a single subtitle extraction or OCR run.
func (c *Config) ExtractTimeout() time.Duration {
	return time.Duration(c.Tools.ExtractTimeout) * time.Second
}

// StagingRetention is the age after which abandoned staging directories are removed.
func (c *Config) StagingRetention() time.Duration {
	return time.Duration(c.Paths.StagingRetentionHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
