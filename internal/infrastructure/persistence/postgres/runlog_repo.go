package postgres

import (
	"context"
	"fmt"
	"time"
)

// RunRecord is one journaled report run.
type RunRecord struct {
	ID         int64
	Kind       string
	StartedAt  time.Time
	FinishedAt time.Time
	RowCount   int
	Delivered  bool
	Error      string
}

// RunLogRepository journals report runs. The journal answers two questions
// the administrators keep asking: did last night's report actually go out,
// and how many rows did it have.
type RunLogRepository struct {
	conn *Connection
}

// NewRunLogRepository creates a RunLogRepository.
func NewRunLogRepository(conn *Connection) *RunLogRepository {
	return &RunLogRepository{conn: conn}
}

// EnsureSchema creates the report_runs table if it doesn't exist.
func (r *RunLogRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS report_runs (
			id BIGSERIAL PRIMARY KEY,
			kind TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			row_count INTEGER NOT NULL DEFAULT 0,
			delivered BOOLEAN NOT NULL DEFAULT FALSE,
			error TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure report_runs schema: %w", err)
	}
	return nil
}

// Insert journals one finished run and returns its id.
func (r *RunLogRepository) Insert(ctx context.Context, record RunRecord) (int64, error) {
	var id int64
	err := r.conn.QueryRow(ctx, `
		INSERT INTO report_runs (kind, started_at, finished_at, row_count, delivered, error)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, record.Kind, record.StartedAt, record.FinishedAt, record.RowCount, record.Delivered, record.Error).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert report run: %w", err)
	}
	return id, nil
}

// RecordRun journals one finished run described by its raw outcome values.
func (r *RunLogRepository) RecordRun(ctx context.Context, kind string, startedAt, finishedAt time.Time, rowCount int, delivered bool, runErr error) error {
	record := RunRecord{
		Kind:       kind,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		RowCount:   rowCount,
		Delivered:  delivered,
	}
	if runErr != nil {
		record.Error = runErr.Error()
	}
	_, err := r.Insert(ctx, record)
	return err
}

// RecentRuns returns the most recent runs of one kind, newest first. An
// empty kind returns runs of every kind.
func (r *RunLogRepository) RecentRuns(ctx context.Context, kind string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, kind, started_at, finished_at, row_count, delivered, error
		FROM report_runs
	`
	args := []interface{}{}
	if kind != "" {
		query += " WHERE kind = $1 ORDER BY started_at DESC LIMIT $2"
		args = append(args, kind, limit)
	} else {
		query += " ORDER BY started_at DESC LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query report runs: %w", err)
	}
	defer rows.Close()

	records := make([]RunRecord, 0, limit)
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.StartedAt, &rec.FinishedAt,
			&rec.RowCount, &rec.Delivered, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan report run: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LastSuccessful returns the newest delivered run of one kind.
func (r *RunLogRepository) LastSuccessful(ctx context.Context, kind string) (*RunRecord, error) {
	var rec RunRecord
	err := r.conn.QueryRow(ctx, `
		SELECT id, kind, started_at, finished_at, row_count, delivered, error
		FROM report_runs
		WHERE kind = $1 AND delivered = TRUE
		ORDER BY started_at DESC
		LIMIT 1
	`, kind).Scan(&rec.ID, &rec.Kind, &rec.StartedAt, &rec.FinishedAt,
		&rec.RowCount, &rec.Delivered, &rec.Error)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query last successful run: %w", err)
	}
	return &rec, nil
}
