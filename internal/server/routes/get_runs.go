package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/papergraph/internal/ledger"
	"github.com/OFFIS-RIT/papergraph/internal/server/middleware"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetRunHandler returns one ingest run from the ledger.
func GetRunHandler(c echo.Context) error {
	type getRunParams struct {
		RunID string `param:"id" validate:"required"`
	}

	params := new(getRunParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request params"})
	}

	runs := c.(*middleware.AppContext).App.Runs
	if runs == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"message": "Run ledger is not enabled"})
	}

	run, err := runs.GetRun(c.Request().Context(), params.RunID)
	if err != nil {
		if errors.Is(err, ledger.ErrRunNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"message": "Run not found"})
		}
		logger.Error("[Server] Failed to load run", "run_id", params.RunID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	return c.JSON(http.StatusOK, run)
}
