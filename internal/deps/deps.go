package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Kind selects how a requirement is located.
type Kind int

const (
	// Binary is looked up on PATH.
	Binary Kind = iota
	// File must exist as a regular file, such as a .NET assembly run by the
	// dotnet host.
	File
)

// Requirement names an external program or file muxplan relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Kind        Kind
	Optional    bool
}

// Status is the outcome of checking one Requirement. Path is the resolved
// location when Available.
type Status struct {
	Requirement
	Available bool
	Path      string
	Detail    string
}

// Check evaluates each requirement in order.
func Check(reqs []Requirement) []Status {
	out := make([]Status, 0, len(reqs))
	for _, req := range reqs {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		if req.Kind == File {
			out = append(out, checkFile(req))
			continue
		}
		out = append(out, checkBinary(req))
	}
	return out
}

func checkBinary(req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return status
	}
	status.Available = true
	status.Path = path
	return status
}

func checkFile(req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "path not configured"
		return status
	}
	info, err := os.Stat(req.Command)
	switch {
	case err != nil:
		status.Detail = fmt.Sprintf("file %q not found", req.Command)
	case info.IsDir():
		status.Detail = fmt.Sprintf("%q is a directory", req.Command)
	default:
		status.Available = true
		status.Path = req.Command
	}
	return status
}
