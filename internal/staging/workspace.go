package staging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"muxplan/internal/textutil"
)

const (
	lockFileName   = ".muxplan.lock"
	lockRetryDelay = 250 * time.Millisecond
)

// Workspace is a per-source directory that holds files staged for a remux,
// guarded by an advisory lock so concurrent runs on the same source do not
// overwrite each other.
type Workspace struct {
	Dir     string
	created bool
	lock    *flock.Flock
}

// DirName returns the workspace directory name for a source file.
func DirName(source string) string {
	base := filepath.Base(strings.TrimSpace(source))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return "srt_" + textutil.SanitizeToken(base)
}

// Open creates (if needed) and locks the workspace for source under root.
// The lock wait honours ctx.
func Open(ctx context.Context, root, source string) (*Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, DirName(source))
	_, statErr := os.Stat(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	ws := &Workspace{
		Dir:     dir,
		created: os.IsNotExist(statErr),
		lock:    flock.New(filepath.Join(dir, lockFileName)),
	}
	locked, err := ws.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock staging dir %s: %w", dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("staging dir %s is locked by another run", dir)
	}
	return ws, nil
}

// Path returns the location of a staged file. The name is sanitized.
func (w *Workspace) Path(name string) string {
	ext := filepath.Ext(name)
	stem := textutil.SanitizeToken(strings.TrimSuffix(name, ext))
	return filepath.Join(w.Dir, stem+strings.ToLower(ext))
}

// Created reports whether Open created the directory.
func (w *Workspace) Created() bool {
	return w != nil && w.created
}

// Close releases the lock and removes the lock file.
func (w *Workspace) Close() error {
	if w == nil || w.lock == nil {
		return nil
	}
	err := w.lock.Unlock()
	_ = os.Remove(w.lock.Path())
	return err
}

// Discard releases the lock and, when Open created the directory, removes it
// along with everything staged in it.
func (w *Workspace) Discard() error {
	if w == nil {
		return nil
	}
	err := w.Close()
	if w.created {
		if rmErr := os.RemoveAll(w.Dir); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}
