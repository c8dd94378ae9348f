package openai

import (
	"time"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

const defaultTimeout = 2 * time.Minute

// EmbeddingOpenAIClient generates title embeddings through any OpenAI
// compatible embeddings endpoint.
//
// It should be created using NewEmbeddingOpenAIClient.
type EmbeddingOpenAIClient struct {
	embeddingModel string
	dimensions     int
	maxTokens      int
	timeout        time.Duration

	reqLock *semaphore.Weighted
	metrics ai.MetricsRecorder

	Client *openai.Client
}

// NewEmbeddingOpenAIClientParams configures an EmbeddingOpenAIClient.
//
// Dimensions fixes the vector length (vectors are truncated or zero padded).
// MaxTokens bounds the input before it is sent. MaxConcurrentRequests limits
// in-flight requests and defaults to 1.
type NewEmbeddingOpenAIClientParams struct {
	EmbeddingModel string
	EmbeddingURL   string
	EmbeddingKey   string

	Dimensions            int
	MaxTokens             int
	MaxConcurrentRequests int64
	Timeout               time.Duration
}

// NewEmbeddingOpenAIClient creates a client for the configured endpoint.
//
// Example:
//
//	client := openai.NewEmbeddingOpenAIClient(openai.NewEmbeddingOpenAIClientParams{
//		EmbeddingModel: "text-embedding-3-small",
//		EmbeddingKey:   os.Getenv("AI_EMBED_KEY"),
//		Dimensions:     1536,
//	})
func NewEmbeddingOpenAIClient(params NewEmbeddingOpenAIClientParams) *EmbeddingOpenAIClient {
	parallel := params.MaxConcurrentRequests
	if parallel <= 0 {
		parallel = 1
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &EmbeddingOpenAIClient{
		embeddingModel: params.EmbeddingModel,
		dimensions:     params.Dimensions,
		maxTokens:      params.MaxTokens,
		timeout:        timeout,

		reqLock: semaphore.NewWeighted(parallel),

		Client: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

func newOpenaiClient(baseURL, apiKey string) *openai.Client {
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)
	return &client
}

// ResetMetrics clears all accumulated usage counters.
func (c *EmbeddingOpenAIClient) ResetMetrics() { c.metrics.Reset() }

// GetMetrics returns the usage accumulated since the last reset.
func (c *EmbeddingOpenAIClient) GetMetrics() ai.ModelMetrics { return c.metrics.Get() }
