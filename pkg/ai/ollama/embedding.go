package ollama

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"

	"github.com/ollama/ollama/api"
)

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model on Ollama.
func (c *EmbeddingOllamaClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	text, err := ai.PrepareInput(input, c.maxTokens)
	if err != nil {
		return nil, err
	}

	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	res, err := c.Client.Embed(rCtx, &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embedding: %w", err)
	}

	c.metrics.Add(ai.ModelMetrics{
		Requests:    1,
		InputTokens: res.PromptEvalCount,
		TotalTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
	})

	if len(res.Embeddings) != 1 {
		return nil, fmt.Errorf("unexpected embedding result size: got %d want 1", len(res.Embeddings))
	}
	return ai.FitDimensions(res.Embeddings[0], c.dimensions), nil
}
