package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/metrics"
	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
	"github.com/OFFIS-RIT/papergraph/pkg/openalex"

	"github.com/go-playground/validator"
	"golang.org/x/time/rate"
)

const (
	MaxChunkSize = openalex.MaxFilterValues
	DefaultPace  = 100 * time.Millisecond
)

// ErrRemoteFetch marks a failed chunk lookup. It is only ever logged; the
// fetcher never returns it to callers.
var ErrRemoteFetch = errors.New("remote fetch failed")

// Source performs one bulk lookup per call. *openalex.Client implements it.
type Source interface {
	ListWorks(ctx context.Context, ids []string) ([]common.Work, error)
	ListAuthors(ctx context.Context, ids []string) ([]common.Author, error)
	ListInstitutions(ctx context.Context, ids []string) ([]common.Institution, error)
}

type record interface {
	CanonicalID() string
}

// Fetcher resolves id lists into records with paced, chunked lookups. A
// failing chunk contributes no records and does not stop later chunks.
type Fetcher struct {
	source    Source
	chunkSize int
	limiter   *rate.Limiter
	validate  *validator.Validate
}

type NewFetcherParams struct {
	Source    Source
	ChunkSize int
	// Pace is the minimum delay between two chunk lookups. Zero disables pacing.
	Pace time.Duration
}

func NewFetcher(params NewFetcherParams) *Fetcher {
	limit := rate.Inf
	if params.Pace > 0 {
		limit = rate.Every(params.Pace)
	}
	chunkSize := params.ChunkSize
	if chunkSize == 0 {
		chunkSize = MaxChunkSize
	}
	return &Fetcher{
		source:    params.Source,
		chunkSize: ClampChunkSize(chunkSize),
		limiter:   rate.NewLimiter(limit, 1),
		validate:  validator.New(),
	}
}

// ChunkSize returns the effective chunk size after clamping.
func (f *Fetcher) ChunkSize() int { return f.chunkSize }

func (f *Fetcher) FetchWorks(ctx context.Context, ids []string) []common.Work {
	return Fetch(ctx, f, common.KindWork, ids, f.source.ListWorks)
}

func (f *Fetcher) FetchAuthors(ctx context.Context, ids []string) []common.Author {
	return Fetch(ctx, f, common.KindAuthor, ids, f.source.ListAuthors)
}

func (f *Fetcher) FetchInstitutions(ctx context.Context, ids []string) []common.Institution {
	return Fetch(ctx, f, common.KindInstitution, ids, f.source.ListInstitutions)
}

// Fetch splits ids into chunks and runs lookup once per chunk. Records come
// back in the order of ids; ids the API did not return are skipped. When ctx
// is cancelled no further chunks are requested and the records gathered so far
// are returned.
func Fetch[T record](
	ctx context.Context,
	f *Fetcher,
	kind common.Kind,
	ids []string,
	lookup func(ctx context.Context, ids []string) ([]T, error),
) []T {
	ids = common.NormalizeIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	out := make([]T, 0, len(ids))
	chunk := 0
	_ = ChunkRange(len(ids), f.chunkSize, func(start, end int) error {
		chunk++
		if err := f.limiter.Wait(ctx); err != nil {
			logger.Debug("[Fetch] Stopped before chunk", "kind", kind, "chunk", chunk, "err", err)
			return err
		}

		part := ids[start:end]
		records, err := lookup(ctx, part)
		if err != nil {
			metrics.FetchChunks.WithLabelValues(kind.String(), "failed").Inc()
			logger.Warn(
				"[Fetch] Chunk failed, skipping",
				"kind", kind,
				"chunk", chunk,
				"ids", len(part),
				"err", fmt.Errorf("%w: %w", ErrRemoteFetch, err),
			)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}

		metrics.FetchChunks.WithLabelValues(kind.String(), "ok").Inc()
		ordered := reorder(f.validate, kind, part, records)
		metrics.FetchRecords.WithLabelValues(kind.String()).Add(float64(len(ordered)))
		out = append(out, ordered...)
		return nil
	})
	return out
}

// reorder drops invalid records and arranges the rest in request order.
func reorder[T record](validate *validator.Validate, kind common.Kind, ids []string, records []T) []T {
	byID := make(map[string]T, len(records))
	for _, rec := range records {
		if err := validate.Struct(rec); err != nil {
			logger.Warn("[Fetch] Dropping invalid record", "kind", kind, "err", err)
			continue
		}
		byID[rec.CanonicalID()] = rec
	}

	out := make([]T, 0, len(byID))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}
