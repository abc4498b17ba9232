package pipeline

import "context"

// Stage is one transformation of the plan. Apply must not mutate the state it
// receives; it returns the next state in the Outcome. When Changed is false
// the returned state must equal the input state.
type Stage interface {
	Name() string
	Apply(ctx context.Context, probes *ProbeSet, state State) (Outcome, error)
}

// Outcome is the result of applying a stage.
type Outcome struct {
	State   State
	Changed bool
	// Reason explains a no-op, or summarizes what changed.
	Reason string
}

// Unchanged builds a no-op outcome carrying the input state.
func Unchanged(state State, reason string) Outcome {
	return Outcome{State: state, Reason: reason}
}

// Changed builds an outcome for a modified state, re-rendering its output
// arguments and flagging that the file needs processing.
func Changed(state State, reason string) Outcome {
	state.ShouldProcess = true
	Refresh(&state)
	return Outcome{State: state, Changed: true, Reason: reason}
}

// Health summarizes whether a stage can run in the current environment.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// HealthChecker is implemented by stages that depend on external tools.
type HealthChecker interface {
	HealthCheck(ctx context.Context) Health
}
