package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/papergraph/pkg/graph"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrRunNotFound = errors.New("ingest run not found")

// DB is the subset of *pgxpool.Pool the ledger needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ledger records every seed ingestion in the ingest_runs table.
type Ledger struct {
	db DB
}

func New(db DB) *Ledger {
	return &Ledger{db: db}
}

const startRunSQL = `
INSERT INTO ingest_runs (run_id, seed, depth, status, started_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (run_id) DO NOTHING;
`

func (l *Ledger) StartRun(ctx context.Context, run graph.SeedResult) error {
	_, err := l.db.Exec(ctx, startRunSQL, run.RunID, run.Seed, run.Depth, string(run.Status), run.StartedAt)
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

const finishRunSQL = `
INSERT INTO ingest_runs (run_id, seed, work_id, depth, status, statements, duration_ms, error, started_at, finished_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, NULLIF($8, ''), $9, now())
ON CONFLICT (run_id) DO UPDATE
SET work_id     = EXCLUDED.work_id,
    status      = EXCLUDED.status,
    statements  = EXCLUDED.statements,
    duration_ms = EXCLUDED.duration_ms,
    error       = EXCLUDED.error,
    finished_at = EXCLUDED.finished_at;
`

func (l *Ledger) FinishRun(ctx context.Context, run graph.SeedResult) error {
	_, err := l.db.Exec(ctx, finishRunSQL,
		run.RunID,
		run.Seed,
		run.WorkID,
		run.Depth,
		string(run.Status),
		run.Statements,
		run.Duration.Milliseconds(),
		run.Error,
		run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("record run result: %w", err)
	}
	return nil
}

const getRunSQL = `
SELECT run_id, seed, coalesce(work_id, ''), depth, status, statements, duration_ms, coalesce(error, ''), started_at
FROM ingest_runs
WHERE run_id = $1;
`

func (l *Ledger) GetRun(ctx context.Context, runID string) (*graph.SeedResult, error) {
	var (
		run        graph.SeedResult
		status     string
		durationMs int64
	)
	err := l.db.QueryRow(ctx, getRunSQL, runID).Scan(
		&run.RunID,
		&run.Seed,
		&run.WorkID,
		&run.Depth,
		&status,
		&run.Statements,
		&durationMs,
		&run.Error,
		&run.StartedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	run.Status = graph.RunStatus(status)
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}

const estimateSQL = `
SELECT coalesce(avg(duration_ms), 0)::bigint
FROM (
    SELECT duration_ms FROM ingest_runs
    WHERE status = 'completed' AND depth = $1
    ORDER BY started_at DESC
    LIMIT 50
) recent;
`

// EstimateDuration predicts how long one seed at depth takes from the most
// recent completed runs. It returns zero when there is no history.
func (l *Ledger) EstimateDuration(ctx context.Context, depth int) (time.Duration, error) {
	var ms int64
	if err := l.db.QueryRow(ctx, estimateSQL, depth).Scan(&ms); err != nil {
		return 0, fmt.Errorf("estimate duration: %w", err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
