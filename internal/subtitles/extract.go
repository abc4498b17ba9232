package subtitles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"muxplan/internal/language"
	"muxplan/internal/logging"
	"muxplan/internal/media/subtitle"
	"muxplan/internal/services"
)

// Request describes one subtitle track to write as SRT.
type Request struct {
	// Source is the media file holding the track.
	Source string
	// StreamIndex is the absolute stream index within Source.
	StreamIndex int
	Codec       string
	Language    string
	// Output is the SRT path to write.
	Output string
}

// Extractor writes a subtitle track to an SRT file.
type Extractor interface {
	Extract(ctx context.Context, req Request) error
}

// CommandRunner executes an external command with extra environment entries.
type CommandRunner func(ctx context.Context, env []string, name string, args ...string) error

// ToolOptions locates the external programs used for extraction.
type ToolOptions struct {
	FFmpeg string
	Dotnet string
	// PgsToSrt is the path to PgsToSrt.dll.
	PgsToSrt string
	// Tessdata is the Tesseract data directory. Empty defaults to a tessdata
	// directory next to PgsToSrt.
	Tessdata string
	// Timeout bounds each external command. Zero disables the bound.
	Timeout time.Duration
}

// Tool extracts text tracks with ffmpeg and OCRs bitmap tracks with PgsToSrt.
type Tool struct {
	opts   ToolOptions
	logger *slog.Logger
	run    CommandRunner
}

// NewTool constructs an extractor backed by external commands.
func NewTool(opts ToolOptions, logger *slog.Logger) *Tool {
	if strings.TrimSpace(opts.FFmpeg) == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if strings.TrimSpace(opts.Dotnet) == "" {
		opts.Dotnet = "dotnet"
	}
	if opts.Tessdata == "" && opts.PgsToSrt != "" {
		opts.Tessdata = filepath.Join(filepath.Dir(opts.PgsToSrt), "tessdata")
	}
	return &Tool{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "subtitle_extractor"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (t *Tool) WithCommandRunner(r CommandRunner) {
	if t != nil && r != nil {
		t.run = r
	}
}

// OCRAvailable reports whether bitmap tracks can be converted.
func (t *Tool) OCRAvailable() bool {
	return t != nil && strings.TrimSpace(t.opts.PgsToSrt) != ""
}

// Extract implements Extractor.
func (t *Tool) Extract(ctx context.Context, req Request) error {
	if t == nil {
		return services.Wrap(services.ErrConfiguration, "subtitles", "extract", "extractor not initialized", nil)
	}
	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Output) == "" {
		return services.Wrap(services.ErrValidation, "subtitles", "extract", "source and output paths are required", nil)
	}
	if t.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.Timeout)
		defer cancel()
	}

	name, args, env, err := t.command(req)
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, t.logger)
	logger.Info("extracting subtitle track",
		logging.String(logging.FieldEventType, "subtitle_extract"),
		logging.String("source", req.Source),
		logging.Int("stream_index", req.StreamIndex),
		logging.String("codec", req.Codec),
		logging.String("output", req.Output),
	)
	start := time.Now()
	if err := t.run(ctx, env, name, args...); err != nil {
		_ = os.Remove(req.Output)
		marker := services.ErrExternalTool
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return services.Wrap(marker, "subtitles", "extract",
			fmt.Sprintf("%s failed for stream %d of %s", filepath.Base(name), req.StreamIndex, req.Source), err)
	}
	if issues := ValidateSRT(req.Output); len(issues) > 0 {
		_ = os.Remove(req.Output)
		return services.Wrap(services.ErrExternalTool, "subtitles", "extract",
			fmt.Sprintf("%s produced an unusable file for stream %d: %s", filepath.Base(name), req.StreamIndex, strings.Join(issues, ", ")), nil)
	}
	logger.Debug("subtitle track extracted",
		logging.String("output", req.Output),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// command builds the invocation for the request: an ffmpeg copy for text
// codecs, PgsToSrt for everything else.
func (t *Tool) command(req Request) (string, []string, []string, error) {
	if subtitle.IsExtractableText(req.Codec) {
		return t.opts.FFmpeg, []string{
			"-y", "-nostdin", "-loglevel", "error",
			"-i", req.Source,
			"-map", "0:" + strconv.Itoa(req.StreamIndex),
			"-c:s", "srt",
			req.Output,
		}, nil, nil
	}
	if !t.OCRAvailable() {
		return "", nil, nil, services.Wrap(services.ErrConfiguration, "subtitles", "extract",
			fmt.Sprintf("codec %s needs OCR but tools.pgstosrt is not configured", req.Codec), nil)
	}
	args := []string{
		t.opts.PgsToSrt,
		"--input=" + req.Source,
		"--output=" + req.Output,
		"--track=" + strconv.Itoa(req.StreamIndex+1),
		"--tesseractlanguage=" + language.TesseractCode(req.Language),
		"--tesseractversion=5",
	}
	var env []string
	if t.opts.Tessdata != "" {
		env = append(env, "TESSDATA_PREFIX="+t.opts.Tessdata)
	}
	return t.opts.Dotnet, args, env, nil
}

func defaultCommandRunner(ctx context.Context, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
