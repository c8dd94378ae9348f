package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchChunks counts OpenAlex chunk lookups.
	// Labels: kind ("Work", "Author", "Institution"), result ("ok", "failed").
	FetchChunks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "papergraph_fetch_chunks_total",
		Help: "OpenAlex chunk lookups by entity kind and result",
	}, []string{"kind", "result"})

	FetchRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "papergraph_fetch_records_total",
		Help: "Entity records returned by OpenAlex",
	}, []string{"kind"})

	StatementsFlushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "papergraph_statements_flushed_total",
		Help: "Write statements committed to the graph store",
	})

	FlushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "papergraph_flush_failures_total",
		Help: "Write transactions that failed and were rolled back",
	})

	FlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "papergraph_flush_duration_seconds",
		Help:    "Duration of one batch write transaction",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	})

	// SeedRuns counts seed ingestions. Labels: status ("completed", "failed", "skipped").
	SeedRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "papergraph_seed_runs_total",
		Help: "Seed ingestions by final status",
	}, []string{"status"})
)
