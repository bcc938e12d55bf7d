package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound reports an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// timeLayout is fixed width so timestamps sort correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const runColumns = "id, kind, source, root, target_fps, frames_scanned, frames_emitted, frames_skipped, status, error, started_at, finished_at"

// Begin records a new running run and returns it.
func (s *Store) Begin(ctx context.Context, kind Kind, source, root string, targetFPS float64) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Source:    source,
		Root:      root,
		TargetFPS: targetFPS,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, kind, source, root, target_fps, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		string(run.Kind),
		nullableString(run.Source),
		run.Root,
		run.TargetFPS,
		string(run.Status),
		run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish closes run id with the given outcome.
func (s *Store) Finish(ctx context.Context, id string, outcome Outcome) error {
	status := StatusFor(outcome.Err)
	var message any
	if outcome.Err != nil && status == StatusFailed {
		message = outcome.Err.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs
         SET status = ?, error = ?, frames_scanned = ?, frames_emitted = ?, frames_skipped = ?, finished_at = ?
         WHERE id = ?`,
		string(status),
		message,
		outcome.FramesScanned,
		outcome.FramesEmitted,
		outcome.FramesSkipped,
		time.Now().UTC().Format(timeLayout),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// Get returns the run with id, matching a unique id prefix as well.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? ORDER BY started_at DESC LIMIT 2`,
		stripLikeWildcards(id)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// List returns the most recent runs first. limit <= 0 returns every run.
func (s *Store) List(ctx context.Context, limit int, kinds ...Kind) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := make([]any, 0, len(kinds)+1)
	if len(kinds) > 0 {
		placeholders := make([]string, len(kinds))
		for i, kind := range kinds {
			placeholders[i] = "?"
			args = append(args, string(kind))
		}
		query += ` WHERE kind IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Summarize counts runs by status and returns the most recent run.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch status {
		case StatusRunning:
			summary.Running += count
		case StatusCompleted:
			summary.Completed += count
		case StatusFailed:
			summary.Failed += count
		case StatusInterrupted:
			summary.Interrupted += count
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}

	latest, err := s.List(ctx, 1)
	if err != nil {
		return Summary{}, err
	}
	if len(latest) > 0 {
		summary.LastRun = latest[0]
	}
	return summary, nil
}

// Prune deletes finished runs that started before cutoff and returns how
// many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM runs WHERE status != ? AND started_at < ?`,
		string(StatusRunning),
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		kind        string
		source      sql.NullString
		status      string
		errMessage  sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&kind,
		&source,
		&run.Root,
		&run.TargetFPS,
		&run.FramesScanned,
		&run.FramesEmitted,
		&run.FramesSkipped,
		&status,
		&errMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.Kind = Kind(kind)
	run.Source = source.String
	run.Status = Status(status)
	run.Error = errMessage.String
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	return &run, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(timeLayout, raw); err == nil {
		return ts
	}
	return time.Time{}
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func stripLikeWildcards(value string) string {
	return strings.NewReplacer(`%`, ``, `_`, ``).Replace(value)
}
