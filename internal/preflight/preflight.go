package preflight

import (
	"context"

	"dandiprep/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config. inputDir is the
// resolved recording directory of the run; an empty value skips that check.
func RunAll(ctx context.Context, cfg *config.Config, inputDir string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if inputDir != "" {
		results = append(results, CheckDirectoryReadable("Input directory", inputDir))
	}
	results = append(results,
		CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchRoot),
		CheckDirectoryAccess("Results directory", cfg.Paths.ResultsRoot),
	)

	for _, status := range CheckSystemDeps(ctx, cfg) {
		result := Result{Name: status.Name, Passed: status.Available || status.Optional, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Path
		}
		results = append(results, result)
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
