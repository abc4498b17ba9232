package staging

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"muxplan/internal/logging"
)

// CleanupResult contains the outcome of a cleanup operation.
type CleanupResult struct {
	Removed []string
	// Skipped lists directories left alone because another run holds them.
	Skipped []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

type remover struct {
	logger *slog.Logger
	result CleanupResult
}

func newRemover(logger *slog.Logger) *remover {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &remover{logger: logger}
}

func (r *remover) fail(path string, err error) {
	r.result.Errors = append(r.result.Errors, CleanupError{Path: path, Error: err})
	r.logger.Warn("failed to remove staged path",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldEventType, "staging_cleanup_failed"),
		logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
		logging.String(logging.FieldImpact, "disk space not reclaimed"),
	)
}

func (r *remover) remove(path string, all bool) bool {
	rm := os.Remove
	if all {
		rm = os.RemoveAll
	}
	if err := rm(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.fail(path, err)
		return false
	}
	r.result.Removed = append(r.result.Removed, path)
	return true
}

// Cleanup removes the temporary files a plan staged. Files go first, then
// directories, deepest first; a directory that still holds other files is
// left in place. Missing paths are ignored.
func Cleanup(paths []string, logger *slog.Logger) CleanupResult {
	r := newRemover(logger)
	var dirs []string
	for _, raw := range paths {
		path := strings.TrimSpace(raw)
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			r.fail(path, err)
		case info.IsDir():
			dirs = append(dirs, path)
		default:
			if r.remove(path, false) {
				r.logger.Debug("removed staged file",
					logging.String("path", path),
					logging.String(logging.FieldEventType, "staging_cleanup"),
				)
			}
		}
	}
	depth := func(p string) int { return strings.Count(filepath.Clean(p), string(filepath.Separator)) }
	slices.SortStableFunc(dirs, func(a, b string) int { return depth(b) - depth(a) })
	for _, dir := range dirs {
		if holdsOnlyLock(dir) {
			r.remove(dir, true)
		}
	}
	return r.result
}

func holdsOnlyLock(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.Name() != lockFileName {
			return false
		}
	}
	return true
}

// CleanStale removes work directories under stagingDir last modified more
// than maxAge ago. Directories whose lock is held by a running plan are
// skipped. A zero maxAge or unset root does nothing.
func CleanStale(ctx context.Context, stagingDir string, maxAge time.Duration, logger *slog.Logger) CleanupResult {
	r := newRemover(logger)
	if maxAge <= 0 {
		return r.result
	}
	dirs, err := ListDirectories(stagingDir)
	if err != nil {
		r.fail(stagingDir, err)
		return r.result
	}
	cutoff := time.Now().Add(-maxAge)
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		if !dir.ModTime.Before(cutoff) {
			continue
		}
		if inUse(dir.Path) {
			r.result.Skipped = append(r.result.Skipped, dir.Path)
			r.logger.Debug("staging directory in use; skipping",
				logging.String("path", dir.Path),
				logging.String(logging.FieldEventType, "staging_cleanup_skipped"),
			)
			continue
		}
		if r.remove(dir.Path, true) {
			r.logger.Info("removed stale staging directory",
				logging.String("path", dir.Path),
				logging.Duration("age", time.Since(dir.ModTime)),
				logging.String(logging.FieldEventType, "staging_cleanup"),
			)
		}
	}
	return r.result
}

// inUse reports whether another process holds the directory's lock. A
// directory without a lock file is never in use.
func inUse(dir string) bool {
	path := filepath.Join(dir, lockFileName)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return false
	}
	if !locked {
		return true
	}
	_ = lock.Unlock()
	return false
}

// DirInfo describes one work directory under the staging root.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
	Files   int
}

// ListDirectories returns the work directories under stagingDir, newest
// first. A missing or unset root yields nil.
func ListDirectories(stagingDir string) ([]DirInfo, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(stagingDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(stagingDir, entry.Name())
		size, files := dirUsage(path)
		dirs = append(dirs, DirInfo{Name: entry.Name(), Path: path, ModTime: info.ModTime(), Size: size, Files: files})
	}
	slices.SortStableFunc(dirs, func(a, b DirInfo) int { return b.ModTime.Compare(a.ModTime) })
	return dirs, nil
}

// dirUsage sums file sizes below path, ignoring the workspace lock file.
func dirUsage(path string) (size int64, files int) {
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() == lockFileName {
			return nil
		}
		if info, infoErr := d.Info(); infoErr == nil {
			size += info.Size()
			files++
		}
		return nil
	})
	return size, files
}
