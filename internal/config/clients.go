package config

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	oai "github.com/OFFIS-RIT/papergraph/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/papergraph/pkg/ai/openai"
	"github.com/OFFIS-RIT/papergraph/pkg/fetch"
	"github.com/OFFIS-RIT/papergraph/pkg/openalex"
	"github.com/OFFIS-RIT/papergraph/pkg/store"
)

// NewEmbeddingClient returns nil when embeddings are disabled.
func (c *Config) NewEmbeddingClient() (ai.EmbeddingClient, error) {
	switch c.AI.Adapter {
	case "none":
		return nil, nil
	case "ollama":
		client, err := oai.NewEmbeddingOllamaClient(oai.NewEmbeddingOllamaClientParams{
			EmbeddingModel:        c.AI.EmbedModel,
			BaseURL:               c.AI.EmbedURL,
			ApiKey:                c.AI.EmbedKey,
			Dimensions:            c.AI.Dimensions,
			MaxTokens:             c.AI.MaxTokens,
			MaxConcurrentRequests: c.AI.ParallelRequests,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		return client, nil
	default:
		return gai.NewEmbeddingOpenAIClient(gai.NewEmbeddingOpenAIClientParams{
			EmbeddingModel:        c.AI.EmbedModel,
			EmbeddingURL:          c.AI.EmbedURL,
			EmbeddingKey:          c.AI.EmbedKey,
			Dimensions:            c.AI.Dimensions,
			MaxTokens:             c.AI.MaxTokens,
			MaxConcurrentRequests: c.AI.ParallelRequests,
		}), nil
	}
}

func (c *Config) NewOpenAlexClient() (*openalex.Client, error) {
	return openalex.NewClient(openalex.NewClientParams{
		BaseURL: c.OpenAlex.URL,
		Email:   c.OpenAlex.Email,
		APIKey:  c.OpenAlex.APIKey,
		Timeout: c.OpenAlex.Timeout,
	})
}

func (c *Config) NewFetcher(source fetch.Source) *fetch.Fetcher {
	return fetch.NewFetcher(fetch.NewFetcherParams{
		Source:    source,
		ChunkSize: c.OpenAlex.ChunkSize,
		Pace:      c.OpenAlex.Pace,
	})
}

func (c *Config) NewGraphStorage(ctx context.Context) (*store.Neo4jStorage, error) {
	return store.NewNeo4jStorage(ctx, store.NewNeo4jStorageParams{
		URI:      c.Neo4j.URI,
		Username: c.Neo4j.Username,
		Password: c.Neo4j.Password,
		Database: c.Neo4j.Database,
	})
}

func (c *Config) ProvisionParams() store.ProvisionParams {
	return store.ProvisionParams{
		Dimensions: c.AI.Dimensions,
		Similarity: c.Neo4j.VectorSimilarity,
	}
}
