package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveSibling returns the command to run for name. When name is not found
// on PATH, a binary of the same name sitting next to the resolved anchor
// command is used instead, so static ffmpeg bundles that ship ffprobe in the
// same directory work without PATH changes.
func ResolveSibling(name, anchor string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if _, err := exec.LookPath(name); err == nil {
		return name
	}
	if strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	anchorPath, err := exec.LookPath(strings.TrimSpace(anchor))
	if err != nil {
		return name
	}
	candidate := filepath.Join(filepath.Dir(anchorPath), executableName(name))
	if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
		return candidate
	}
	return name
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
