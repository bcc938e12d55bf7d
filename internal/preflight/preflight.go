package preflight

import (
	"context"

	"asciireel/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks for the given config.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckCreatableDirectory("State directory", cfg.Paths.StateDir),
		CheckCreatableDirectory("Log directory", cfg.Paths.LogDir),
		CheckCreatableDirectory("Convert output directory", cfg.Convert.OutputDir),
	}
	if cfg.Play.FramesDir != "" && cfg.Play.FramesDir != cfg.Convert.OutputDir {
		results = append(results, CheckReadableDirectory("Play frames directory", cfg.Play.FramesDir))
	}
	return results
}
