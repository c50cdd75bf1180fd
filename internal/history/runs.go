package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/templatize/internal/models"
)

var (
	// ErrRunNotFound is returned when no run matches an ID or prefix.
	ErrRunNotFound = errors.New("run not found")
	// ErrAmbiguousRunID is returned when a prefix matches several runs.
	ErrAmbiguousRunID = errors.New("run ID prefix is ambiguous")
)

// Run is one recorded templatize invocation.
type Run struct {
	ID             string
	Command        string
	Token          string
	Replacement    string
	Target         string
	Mode           string
	StartedAt      time.Time
	FinishedAt     *time.Time // nil while running or if the process died
	FilesProcessed int
	PathsRenamed   int
	ContentChanges int
	Skipped        int
	Declined       int
}

// Change is one committed change of a run.
type Change struct {
	ID     int64
	RunID  string
	Kind   models.ChangeKind
	Path   string
	Before string
	After  string
	Offset int
	Line   int
	Rule   string
}

// NewRunID returns a random run ID.
func NewRunID() string {
	return uuid.NewString()
}

// StartRun inserts run, assigning an ID and start time when unset.
func (s *Store) StartRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, command, token, replacement, target, mode, started_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Token, run.Replacement, run.Target, run.Mode, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final counters of a run.
func (s *Store) FinishRun(ctx context.Context, id string, result *models.RunResult) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE runs SET finished_at = ?, files_processed = ?, paths_renamed = ?,
    content_changes = ?, skipped = ?, declined = ?
WHERE id = ?`,
		time.Now().UTC(), result.FilesProcessed, result.PathsRenamed,
		result.ContentChanges, result.Skipped, result.Declined, id)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	return nil
}

// RecordChanges stores committed changes of a run in one transaction.
func (s *Store) RecordChanges(ctx context.Context, runID string, records []models.ChangeRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO changes (run_id, kind, path, before_text, after_text, byte_offset, line, rule)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var offset, line sql.NullInt64
		if r.Kind == models.KindContent {
			offset = sql.NullInt64{Int64: int64(r.Location.Offset), Valid: true}
			line = sql.NullInt64{Int64: int64(r.Location.Line), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, runID, r.Kind.String(), r.Location.Path, r.Before, r.After, offset, line, r.Rule); err != nil {
			return fmt.Errorf("insert change: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit changes: %w", err)
	}
	return nil
}

const runColumns = `id, command, COALESCE(token, ''), COALESCE(replacement, ''), target, mode,
    started_at, finished_at, files_processed, paths_renamed, content_changes, skipped, declined`

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
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

// GetRun returns the run with the given ID or unique ID prefix.
func (s *Store) GetRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	if idOrPrefix == "" {
		return nil, ErrRunNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR substr(id, 1, ?) = ? LIMIT 2`,
		idOrPrefix, len(idOrPrefix), idOrPrefix)
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
		if run.ID == idOrPrefix {
			return run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%s: %w", idOrPrefix, ErrRunNotFound)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%s: %w", idOrPrefix, ErrAmbiguousRunID)
	}
}

// GetChanges returns the changes of a run in commit order.
func (s *Store) GetChanges(ctx context.Context, runID string) ([]*Change, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, run_id, kind, path, before_text, after_text,
    COALESCE(byte_offset, 0), COALESCE(line, 0), COALESCE(rule, '')
FROM changes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	var changes []*Change
	for rows.Next() {
		var c Change
		var kind string
		if err := rows.Scan(&c.ID, &c.RunID, &kind, &c.Path, &c.Before, &c.After, &c.Offset, &c.Line, &c.Rule); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		c.Kind = models.ParseChangeKind(kind)
		changes = append(changes, &c)
	}
	return changes, rows.Err()
}

// Clear deletes every run and change. It returns the number of runs removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM changes`); err != nil {
		return 0, fmt.Errorf("delete changes: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit clear: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var finished sql.NullTime
	if err := row.Scan(&r.ID, &r.Command, &r.Token, &r.Replacement, &r.Target, &r.Mode,
		&r.StartedAt, &finished, &r.FilesProcessed, &r.PathsRenamed, &r.ContentChanges,
		&r.Skipped, &r.Declined); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}
