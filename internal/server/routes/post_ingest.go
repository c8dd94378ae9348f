package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/papergraph/internal/queue"
	"github.com/OFFIS-RIT/papergraph/internal/server/middleware"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CreateIngestHandler queues an ingestion of the given seeds.
func CreateIngestHandler(c echo.Context) error {
	type createIngestBody struct {
		Seeds []string `json:"seeds" validate:"required,min=1,dive,required"`
		Depth int      `json:"depth" validate:"min=0,max=5"`
	}

	type createIngestResponse struct {
		Message          string `json:"message"`
		CorrelationID    string `json:"correlation_id,omitempty"`
		EstimatedSeconds int64  `json:"estimated_seconds,omitempty"`
	}

	data := new(createIngestBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createIngestResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createIngestResponse{
			Message: "Invalid request body",
		})
	}

	cc := c.(*middleware.AppContext)
	if cc.User == nil {
		return c.JSON(http.StatusUnauthorized, createIngestResponse{
			Message: "Unauthorized",
		})
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createIngestResponse{
			Message: "Internal server error",
		})
	}

	ctx := c.Request().Context()
	msg := queue.IngestMsg{
		CorrelationID: correlationID,
		Seeds:         data.Seeds,
		Depth:         data.Depth,
		RequestedBy:   cc.User.UserID,
	}
	if err := queue.PublishIngest(ctx, cc.App.Queue, msg); err != nil {
		logger.Error("[Server] Failed to publish ingest request", "err", err)
		return c.JSON(http.StatusInternalServerError, createIngestResponse{
			Message: "Internal server error",
		})
	}

	res := createIngestResponse{
		Message:       "Ingest queued",
		CorrelationID: correlationID,
	}
	if cc.App.Runs != nil {
		perSeed, err := cc.App.Runs.EstimateDuration(ctx, data.Depth)
		if err != nil {
			logger.Debug("[Server] No duration estimate", "depth", data.Depth, "err", err)
		} else {
			res.EstimatedSeconds = int64(perSeed.Seconds()) * int64(len(data.Seeds))
		}
	}

	return c.JSON(http.StatusAccepted, res)
}
