package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/metrics"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
	"github.com/OFFIS-RIT/papergraph/pkg/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusSkipped   RunStatus = "skipped"
)

// SeedResult describes one seed ingestion.
type SeedResult struct {
	RunID      string        `json:"run_id"`
	Seed       string        `json:"seed"`
	WorkID     string        `json:"work_id,omitempty"`
	Depth      int           `json:"depth"`
	Status     RunStatus     `json:"status"`
	Statements int           `json:"statements"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// Ingest runs IngestSeed for every seed in order. A seed that cannot be
// resolved is skipped; the first failed flush stops the run and is returned
// together with the results gathered so far.
func (g *GraphClient) Ingest(ctx context.Context, seeds []string, depth int) ([]SeedResult, error) {
	var results []SeedResult
	run := func(ctx context.Context) error {
		for _, seed := range seeds {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := g.IngestSeed(ctx, seed, depth)
			results = append(results, res)
			if err != nil {
				return err
			}
		}
		return nil
	}

	if g.locker == nil {
		err := run(ctx)
		return results, err
	}
	err := g.locker.Lock(ctx, run)
	return results, err
}

// IngestSeed resolves seed, buffers its subgraph up to depth citation hops
// and commits it in one write transaction. The dedup cache lives exactly as
// long as this call.
func (g *GraphClient) IngestSeed(ctx context.Context, seed string, depth int) (SeedResult, error) {
	if depth < 0 {
		depth = 0
	}
	res := SeedResult{
		RunID:     newRunID(),
		Seed:      seed,
		Depth:     depth,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	g.startRun(ctx, res)

	work, err := g.resolver.GetWork(ctx, seed)
	if err != nil {
		logger.Warn("[Graph] Seed lookup failed, skipping", "seed", seed, "err", err)
		res.Error = err.Error()
		return g.finishRun(ctx, res, StatusSkipped), nil
	}
	res.WorkID = work.CanonicalID()
	logger.Info("[Graph] Ingesting seed", "seed", seed, "work", res.WorkID, "depth", depth, "run", res.RunID)

	batch := store.NewBatch(g.writer, store.NewDedupCache())
	if err := g.Traverse(ctx, *work, depth, batch); err != nil {
		res.Error = err.Error()
		return g.finishRun(ctx, res, StatusFailed), fmt.Errorf("traverse seed %s: %w", seed, err)
	}

	res.Statements = batch.Len()
	if err := batch.Flush(ctx); err != nil {
		logger.Error("[Graph] Flush failed", "seed", seed, "statements", res.Statements, "err", err)
		res.Error = err.Error()
		return g.finishRun(ctx, res, StatusFailed), fmt.Errorf("ingest seed %s: %w", seed, err)
	}

	res = g.finishRun(ctx, res, StatusCompleted)
	logger.Info("[Graph] Seed ingested", "seed", seed, "statements", res.Statements, "duration", res.Duration)
	return res, nil
}

func (g *GraphClient) startRun(ctx context.Context, res SeedResult) {
	if g.recorder == nil {
		return
	}
	if err := g.recorder.StartRun(ctx, res); err != nil {
		logger.Warn("[Graph] Failed to record run start", "run", res.RunID, "err", err)
	}
}

func (g *GraphClient) finishRun(ctx context.Context, res SeedResult, status RunStatus) SeedResult {
	res.Status = status
	res.Duration = time.Since(res.StartedAt)
	metrics.SeedRuns.WithLabelValues(string(status)).Inc()

	if g.recorder != nil {
		// record the outcome even when ctx was cancelled mid-run
		rCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := g.recorder.FinishRun(rCtx, res); err != nil {
			logger.Warn("[Graph] Failed to record run result", "run", res.RunID, "err", err)
		}
	}
	return res
}

func newRunID() string {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return id
}
