package store

import (
	"context"
	"fmt"
	"time"

	"rekrybot/internal/deadline"
)

type Run struct {
	ID           int64     `json:"id"`
	StartedAt    time.Time `json:"startedAt"`
	Source       string    `json:"source"`
	Archive      string    `json:"archive"`
	MessageCount int       `json:"messageCount"`
	DryRun       bool      `json:"dryRun"`

	Postings []PostingRecord `json:"postings,omitempty"`
}

type PostingRecord struct {
	Position     int    `json:"position"`
	MessageID    string `json:"messageId"`
	Subject      string `json:"subject"`
	DeadlineKind string `json:"deadlineKind"` // found/asap/not_found
	Deadline     string `json:"deadline"`
}

// Result rebuilds the deadline result the posting was recorded with.
func (p PostingRecord) Result() deadline.Result {
	return deadline.Result{Kind: deadline.ParseKind(p.DeadlineKind), Text: p.Deadline}
}

// RecordRun stores r and its postings in one transaction and returns the run id.
func (d *DB) RecordRun(ctx context.Context, r Run) (int64, error) {
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
INSERT INTO runs (started_at, source, archive, message_count, dry_run)
VALUES (?, ?, ?, ?, ?);`,
		r.StartedAt.UTC().Format(time.RFC3339), r.Source, r.Archive, r.MessageCount, r.DryRun,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, p := range r.Postings {
		// (run_id, position) is the primary key; a repeated position is ignored.
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO postings (run_id, position, message_id, subject, deadline_kind, deadline)
VALUES (?, ?, ?, ?, ?, ?);`,
			id, p.Position, p.MessageID, p.Subject, p.DeadlineKind, p.Deadline,
		); err != nil {
			return 0, fmt.Errorf("insert posting: %w", err)
		}
	}

	return id, tx.Commit()
}

// ListRuns returns the most recent runs first, without postings.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, started_at, source, archive, message_count, dry_run
FROM runs
ORDER BY started_at DESC, id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var startedAt string
		if err := rows.Scan(&r.ID, &startedAt, &r.Source, &r.Archive, &r.MessageCount, &r.DryRun); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// PostingsForRun returns the postings of run id in digest order.
func (d *DB) PostingsForRun(ctx context.Context, id int64) ([]PostingRecord, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT position, message_id, subject, deadline_kind, deadline
FROM postings
WHERE run_id = ?
ORDER BY position;`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PostingRecord
	for rows.Next() {
		var p PostingRecord
		if err := rows.Scan(&p.Position, &p.MessageID, &p.Subject, &p.DeadlineKind, &p.Deadline); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
