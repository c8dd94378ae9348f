package store

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable is returned when no connection to the graph store
	// could be established, including the relaxed-scheme fallback.
	ErrStoreUnavailable = errors.New("graph store unavailable")
	// ErrWriteTransaction marks a failed batch flush. Nothing of the batch
	// was committed.
	ErrWriteTransaction = errors.New("graph write transaction failed")
)

// Writer executes statements inside one atomic write transaction, in order.
// Either every statement takes effect or none does.
type Writer interface {
	WriteTx(ctx context.Context, statements []Statement) error
}

// GraphStorage defines the interface for the citation graph store. It covers
// schema provisioning, transactional writes, similarity lookups over work
// embeddings and the administrative full reset.
type GraphStorage interface {
	Writer
	Provision(ctx context.Context, params ProvisionParams) error
	Reset(ctx context.Context) error
	Similar(ctx context.Context, embedding []float32, k int) ([]SimilarWork, error)
	Close(ctx context.Context) error
}

// SimilarWork is one hit of a similarity query.
type SimilarWork struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}
