package store

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/metrics"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
)

// Batch buffers write statements for one seed ingestion and commits them in a
// single transaction on Flush. The dedup cache handed to NewBatch shares the
// batch's lifetime: it is cleared together with the buffer after every
// successful flush.
type Batch struct {
	writer     Writer
	cache      *DedupCache
	statements []Statement
}

func NewBatch(writer Writer, cache *DedupCache) *Batch {
	if cache == nil {
		cache = NewDedupCache()
	}
	return &Batch{
		writer: writer,
		cache:  cache,
	}
}

// Add appends a statement to the buffer.
func (b *Batch) Add(stmt Statement) {
	b.statements = append(b.statements, stmt)
}

// AddNode appends a node upsert unless id was already buffered in this run.
// It reports whether the statement was added.
func (b *Batch) AddNode(id string, stmt Statement) bool {
	if b.cache.Seen(id) {
		return false
	}
	b.cache.Mark(id)
	b.Add(stmt)
	return true
}

// Cache returns the dedup cache bound to the batch.
func (b *Batch) Cache() *DedupCache {
	return b.cache
}

// Len returns the number of buffered statements.
func (b *Batch) Len() int {
	return len(b.statements)
}

// Statements returns a copy of the buffered statements in insertion order.
func (b *Batch) Statements() []Statement {
	out := make([]Statement, len(b.statements))
	copy(out, b.statements)
	return out
}

// Flush commits every buffered statement in one write transaction. An empty
// buffer is a no-op. On success the buffer and the dedup cache are cleared; on
// failure the returned error wraps ErrWriteTransaction and the batch must not
// be reused for the run.
func (b *Batch) Flush(ctx context.Context) error {
	if len(b.statements) == 0 {
		return nil
	}
	if b.writer == nil {
		return fmt.Errorf("%w: no writer configured", ErrWriteTransaction)
	}

	start := time.Now()
	err := b.writer.WriteTx(ctx, b.statements)
	metrics.FlushDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FlushFailures.Inc()
		return fmt.Errorf("%w: %w", ErrWriteTransaction, err)
	}

	metrics.StatementsFlushed.Add(float64(len(b.statements)))
	logger.Debug("[Store] Flushed batch", "statements", len(b.statements), "duration", time.Since(start))

	b.statements = b.statements[:0]
	b.cache.Clear()
	return nil
}
