package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"muxplan/internal/config"
	"muxplan/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external tools for the given config. ffmpeg
// and ffprobe are required; the OCR toolchain is only needed when bitmap
// subtitles are extracted, so it is optional and skipped when unset.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	reqs := []deps.Requirement{
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "Required for media inspection"},
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "Required for subtitle extraction and running the planned command"},
	}
	if strings.TrimSpace(cfg.Tools.PgsToSrt) != "" {
		reqs = append(reqs,
			deps.Requirement{Name: "dotnet", Command: cfg.Tools.Dotnet, Description: "Runs PgsToSrt for bitmap subtitle OCR", Optional: true},
			deps.Requirement{Name: "PgsToSrt", Command: cfg.Tools.PgsToSrt, Description: "Bitmap subtitle OCR", Kind: deps.File, Optional: true},
		)
	}
	return deps.Check(reqs)
}

func fromStatus(status deps.Status) Result {
	detail := status.Detail
	if status.Available {
		detail = status.Path
	}
	return Result{
		Name:     status.Name,
		Passed:   status.Available,
		Optional: status.Optional,
		Detail:   detail,
	}
}
