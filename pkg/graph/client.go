package graph

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/store"
)

// Fetcher resolves id lists into records. Failed lookups yield fewer records,
// never an error. *fetch.Fetcher implements it.
type Fetcher interface {
	FetchWorks(ctx context.Context, ids []string) []common.Work
	FetchAuthors(ctx context.Context, ids []string) []common.Author
	FetchInstitutions(ctx context.Context, ids []string) []common.Institution
}

// SeedResolver looks up a single seed work by OpenAlex id or DOI.
// *openalex.Client implements it.
type SeedResolver interface {
	GetWork(ctx context.Context, ref string) (*common.Work, error)
}

// RunRecorder persists the lifecycle of seed ingestions.
type RunRecorder interface {
	StartRun(ctx context.Context, run SeedResult) error
	FinishRun(ctx context.Context, run SeedResult) error
}

// Locker serializes ingestion runs across processes.
type Locker interface {
	Lock(ctx context.Context, fn func(ctx context.Context) error) error
}

var ErrNoWriter = errors.New("graph: no store writer configured")

// GraphClient crawls the citation network around seed works and writes it to
// the graph store, one transaction per seed.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	fetcher  Fetcher
	resolver SeedResolver
	writer   store.Writer
	embedder ai.EmbeddingClient
	recorder RunRecorder
	locker   Locker
}

// NewGraphClientParams defines the collaborators of a GraphClient.
//
// Fetcher, Resolver and Writer are required. Embedder, Recorder and Locker are
// optional: without an embedder works are stored without embeddings, without
// a recorder runs are only logged and without a locker runs are not
// serialized across processes.
type NewGraphClientParams struct {
	Fetcher  Fetcher
	Resolver SeedResolver
	Writer   store.Writer
	Embedder ai.EmbeddingClient
	Recorder RunRecorder
	Locker   Locker
}

// NewGraphClient creates and returns a new GraphClient.
//
// Example:
//
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		Fetcher:  fetcher,
//		Resolver: openalexClient,
//		Writer:   neo4jStorage,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	if params.Fetcher == nil {
		return nil, errors.New("graph: fetcher is required")
	}
	if params.Resolver == nil {
		return nil, errors.New("graph: seed resolver is required")
	}
	if params.Writer == nil {
		return nil, ErrNoWriter
	}

	return &GraphClient{
		fetcher:  params.Fetcher,
		resolver: params.Resolver,
		writer:   params.Writer,
		embedder: params.Embedder,
		recorder: params.Recorder,
		locker:   params.Locker,
	}, nil
}
