package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/papergraph/internal/server/middleware"
	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
	"github.com/OFFIS-RIT/papergraph/pkg/store"

	"github.com/labstack/echo/v4"
)

const defaultSearchLimit = 10

// SearchWorksHandler returns the works whose title embedding is closest to q.
func SearchWorksHandler(c echo.Context) error {
	type searchParams struct {
		Query string `query:"q" validate:"required"`
		K     int    `query:"k" validate:"min=0,max=100"`
	}

	type searchResponse struct {
		Message string              `json:"message,omitempty"`
		Works   []store.SimilarWork `json:"works,omitempty"`
	}

	params := new(searchParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{Message: "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{Message: "Invalid request params"})
	}
	if params.K == 0 {
		params.K = defaultSearchLimit
	}

	app := c.(*middleware.AppContext).App
	if app.Embedder == nil || app.Search == nil {
		return c.JSON(http.StatusServiceUnavailable, searchResponse{Message: "Search is not enabled"})
	}

	ctx := c.Request().Context()
	embedding, err := app.Embedder.GenerateEmbedding(ctx, []byte(params.Query))
	if err != nil {
		if errors.Is(err, ai.ErrEmptyInput) {
			return c.JSON(http.StatusBadRequest, searchResponse{Message: "Invalid request params"})
		}
		logger.Error("[Server] Failed to embed query", "err", err)
		return c.JSON(http.StatusBadGateway, searchResponse{Message: "Embedding failed"})
	}

	works, err := app.Search.Similar(ctx, embedding, params.K)
	if err != nil {
		logger.Error("[Server] Similarity search failed", "err", err)
		return c.JSON(http.StatusInternalServerError, searchResponse{Message: "Internal server error"})
	}
	if works == nil {
		works = []store.SimilarWork{}
	}

	return c.JSON(http.StatusOK, searchResponse{Works: works})
}
