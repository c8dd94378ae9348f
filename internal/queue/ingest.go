package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/papergraph/pkg/graph"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/go-playground/validator"
)

// MaxDepth caps the traversal depth accepted from the queue.
const MaxDepth = 5

// IngestMsg asks the worker to ingest seeds up to Depth citation hops.
type IngestMsg struct {
	CorrelationID string   `json:"correlation_id" validate:"required"`
	Seeds         []string `json:"seeds" validate:"required,min=1,dive,required"`
	Depth         int      `json:"depth" validate:"min=0,max=5"`
	RequestedBy   string   `json:"requested_by,omitempty"`
}

// Ingester is implemented by *graph.GraphClient.
type Ingester interface {
	Ingest(ctx context.Context, seeds []string, depth int) ([]graph.SeedResult, error)
}

var validate = validator.New()

func DecodeIngestMsg(body []byte) (IngestMsg, error) {
	var msg IngestMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("decode ingest message: %w", err)
	}
	if err := validate.Struct(msg); err != nil {
		return msg, fmt.Errorf("invalid ingest message: %w", err)
	}
	return msg, nil
}

func PublishIngest(ctx context.Context, ch Publisher, msg IngestMsg) error {
	if err := validate.Struct(msg); err != nil {
		return fmt.Errorf("invalid ingest message: %w", err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return PublishFIFO(ctx, ch, IngestQueue, data, nil)
}

// ProcessIngestMessage runs one queued ingestion. Malformed messages are
// reported as ErrPoisonMessage so they go straight to the dead-letter queue.
func ProcessIngestMessage(ctx context.Context, ingester Ingester, body []byte) error {
	msg, err := DecodeIngestMsg(body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPoisonMessage, err)
	}

	logger.Info("[Queue] Processing ingest request", "correlation_id", msg.CorrelationID, "seeds", len(msg.Seeds), "depth", msg.Depth)
	results, err := ingester.Ingest(ctx, msg.Seeds, msg.Depth)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", msg.CorrelationID, err)
	}

	completed, skipped := 0, 0
	for _, r := range results {
		switch r.Status {
		case graph.StatusCompleted:
			completed++
		case graph.StatusSkipped:
			skipped++
		}
	}
	logger.Info("[Queue] Ingest request done", "correlation_id", msg.CorrelationID, "completed", completed, "skipped", skipped)
	return nil
}
