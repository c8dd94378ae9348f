package middleware

import (
	"context"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/queue"
	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/graph"
	"github.com/OFFIS-RIT/papergraph/pkg/store"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	UserID      string
	Role        string
	Permissions []string
}

// Searcher ranks stored works by embedding similarity.
type Searcher interface {
	Similar(ctx context.Context, embedding []float32, k int) ([]store.SimilarWork, error)
}

// RunReader reads the ingestion ledger.
type RunReader interface {
	GetRun(ctx context.Context, runID string) (*graph.SeedResult, error)
	EstimateDuration(ctx context.Context, depth int) (time.Duration, error)
}

// App holds the shared dependencies of every request. Key, Embedder, Search
// and Runs may be nil when the matching backend is not configured.
type App struct {
	Queue    queue.Publisher
	Key      keyfunc.Keyfunc
	Embedder ai.EmbeddingClient
	Search   Searcher
	Runs     RunReader

	MasterAPIKey   string
	MasterUserID   string
	MasterUserRole string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
