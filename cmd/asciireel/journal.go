package main

import (
	"context"
	"log/slog"

	"asciireel/internal/history"
	"asciireel/internal/logging"
)

// runJournal records one command invocation in the run history. Journal
// failures are logged and never fail the command.
type runJournal struct {
	store  *history.Store
	run    *history.Run
	logger *slog.Logger
}

func (c *commandContext) beginRun(ctx context.Context, logger *slog.Logger, kind history.Kind, source, root string, fps float64) *runJournal {
	journal := &runJournal{logger: logger}
	store, err := c.openHistory()
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.state_dir permissions or set history.enabled = false"),
			logging.String(logging.FieldImpact, "this run is not recorded"),
		)
		return journal
	}
	if store == nil {
		return journal
	}
	run, err := store.Begin(ctx, kind, source, root, fps)
	if err != nil {
		logging.WarnWithContext(logger, "run not recorded", "history_begin_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is not recorded"),
		)
		_ = store.Close()
		return journal
	}
	journal.store = store
	journal.run = run
	return journal
}

// id returns the run identifier, or an empty string when nothing is recorded.
func (j *runJournal) id() string {
	if j == nil || j.run == nil {
		return ""
	}
	return j.run.ID
}

func (j *runJournal) finish(ctx context.Context, outcome history.Outcome) {
	if j == nil || j.store == nil {
		return
	}
	defer j.store.Close()
	if err := j.store.Finish(context.WithoutCancel(ctx), j.run.ID, outcome); err != nil {
		logging.WarnWithContext(j.logger, "run outcome not recorded", "history_finish_failed",
			logging.String("run_id", j.run.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the run stays marked as running in history"),
		)
	}
}
