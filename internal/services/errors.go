package services

import (
	"errors"
	"strings"
)

// Markers classify failures. Wrap attaches one to every error a stage or
// adapter returns so callers can branch with errors.Is.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

var markerKinds = []struct {
	marker error
	kind   string
}{
	{ErrExternalTool, "external_tool"},
	{ErrValidation, "validation"},
	{ErrConfiguration, "configuration"},
	{ErrNotFound, "not_found"},
	{ErrTimeout, "timeout"},
	{ErrTransient, "transient"},
}

// Error is a classified failure with the stage and operation it came from.
type Error struct {
	Marker  error
	Stage   string
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Marker.Error())
	b.WriteString(": ")
	wrote := false
	for _, part := range []string{e.Stage, e.Op, e.Message} {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		if wrote {
			b.WriteString(": ")
		}
		b.WriteString(part)
		wrote = true
	}
	if !wrote {
		b.WriteString("service failure")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the marker and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

// Wrap tags err with marker and the stage/operation context. A nil marker
// means ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &Error{Marker: marker, Stage: stage, Op: operation, Message: message, Err: err}
}

// Classify returns a short label for the marker carried by err, used in logs
// and the run journal. Unmarked errors are reported as "unknown".
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for _, mk := range markerKinds {
		if errors.Is(err, mk.marker) {
			return mk.kind
		}
	}
	return "unknown"
}

// ExitCode maps err to the process exit status used by the CLI.
func ExitCode(err error) int {
	switch Classify(err) {
	case "":
		return 0
	case "configuration", "validation":
		return 2
	case "not_found":
		return 3
	case "external_tool", "timeout":
		return 4
	default:
		return 1
	}
}
