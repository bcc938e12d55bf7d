package history

import (
	"context"
	"errors"
	"time"
)

// Kind names the command a run belongs to.
type Kind string

const (
	KindConvert Kind = "convert"
	KindPlay    Kind = "play"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// StatusFor maps a command's final error to the status recorded for it.
func StatusFor(err error) Status {
	switch {
	case err == nil:
		return StatusCompleted
	case errors.Is(err, context.Canceled):
		return StatusInterrupted
	default:
		return StatusFailed
	}
}

// Run is one journaled command invocation.
type Run struct {
	ID            string
	Kind          Kind
	Source        string
	Root          string
	TargetFPS     float64
	FramesScanned int64
	FramesEmitted int64
	FramesSkipped int64
	Status        Status
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Duration reports how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is the final state written by Finish.
type Outcome struct {
	Err           error
	FramesScanned int64
	FramesEmitted int64
	FramesSkipped int64
}

// Summary aggregates run counts for diagnostic output.
type Summary struct {
	Total       int
	Running     int
	Completed   int
	Failed      int
	Interrupted int
	LastRun     *Run
}
