package history

import "time"

// Run is one journaled pipeline run.
type Run struct {
	ID            string    `json:"id"`
	SourcePath    string    `json:"source_path"`
	Container     string    `json:"container,omitempty"`
	Stages        []string  `json:"stages"`
	ShouldProcess bool      `json:"should_process"`
	Arguments     []string  `json:"arguments,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Finished reports whether FinishRun was recorded for the run.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// StageEntry is one journaled stage application.
type StageEntry struct {
	RunID        string        `json:"run_id"`
	Sequence     int           `json:"sequence"`
	Stage        string        `json:"stage"`
	Changed      bool          `json:"changed"`
	Reason       string        `json:"reason,omitempty"`
	Duration     time.Duration `json:"duration"`
	ErrorKind    string        `json:"error_kind,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Arguments    []string      `json:"arguments,omitempty"`
}
