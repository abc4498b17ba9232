package preflight

import (
	"context"

	"muxplan/internal/config"
	"muxplan/internal/pipeline"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes the tool and directory checks for the given config.
// Stage health is reported by CheckStages since it needs the built chain.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, fromStatus(status))
	}

	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	return results
}

// CheckStages collects health from stages that depend on external tools.
// Unhealthy stages are reported as optional failures: the stage itself
// decides at apply time whether the missing tool matters for a given file.
func CheckStages(ctx context.Context, chain []pipeline.Stage) []Result {
	var results []Result
	for _, stage := range chain {
		checker, ok := stage.(pipeline.HealthChecker)
		if !ok {
			continue
		}
		health := checker.HealthCheck(ctx)
		detail := health.Detail
		if health.Ready && detail == "" {
			detail = "ready"
		}
		results = append(results, Result{
			Name:     "Stage " + health.Name,
			Passed:   health.Ready,
			Optional: true,
			Detail:   detail,
		})
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
