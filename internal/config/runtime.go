package config

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/ledger"
	"github.com/OFFIS-RIT/papergraph/internal/util"
	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/graph"
	"github.com/OFFIS-RIT/papergraph/pkg/leaselock"
	"github.com/OFFIS-RIT/papergraph/pkg/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres bundles the optional run ledger and lease lock backends.
type Postgres struct {
	Pool   *pgxpool.Pool
	Ledger *ledger.Ledger
	Locks  *leaselock.Client
}

func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// OpenPostgres migrates and connects to DATABASE_URL. It returns nil without
// error when no database is configured.
func (c *Config) OpenPostgres(ctx context.Context) (*Postgres, error) {
	if c.DatabaseURL == "" {
		return nil, nil
	}
	if err := ledger.Migrate(c.DatabaseURL); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := util.RetryErrWithContext(ctx, 3, time.Second, pool.Ping); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{
		Pool:   pool,
		Ledger: ledger.New(pool),
		Locks:  leaselock.New(pool),
	}, nil
}

// NewGraphClient wires the OpenAlex client and fetcher around writer.
// embedder and pg may be nil; owner names the lock holder.
func (c *Config) NewGraphClient(writer store.Writer, embedder ai.EmbeddingClient, pg *Postgres, owner string) (*graph.GraphClient, error) {
	alex, err := c.NewOpenAlexClient()
	if err != nil {
		return nil, err
	}

	params := graph.NewGraphClientParams{
		Fetcher:  c.NewFetcher(alex),
		Resolver: alex,
		Writer:   writer,
		Embedder: embedder,
	}
	if pg != nil {
		params.Recorder = pg.Ledger
		params.Locker = pg.Locks.Lock(leaselock.IngestKey, leaselock.IngestOptions(owner))
	}
	return graph.NewGraphClient(params)
}
