package ollama

import (
	"net/http"
	"net/url"
	"time"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

const (
	defaultBaseURL = "http://127.0.0.1:11434"
	defaultTimeout = 2 * time.Minute
)

// EmbeddingOllamaClient implements ai.EmbeddingClient against a local or
// hosted Ollama server.
type EmbeddingOllamaClient struct {
	embeddingModel string
	dimensions     int
	maxTokens      int
	timeout        time.Duration

	reqLock *semaphore.Weighted
	metrics ai.MetricsRecorder

	Client *api.Client
}

// NewEmbeddingOllamaClientParams contains configuration options for creating a
// new EmbeddingOllamaClient.
type NewEmbeddingOllamaClientParams struct {
	EmbeddingModel string

	BaseURL string
	ApiKey  string

	Dimensions            int
	MaxTokens             int
	MaxConcurrentRequests int64
	Timeout               time.Duration
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewEmbeddingOllamaClient connects to the Ollama server at BaseURL, or the
// local default port when empty.
func NewEmbeddingOllamaClient(params NewEmbeddingOllamaClientParams) (*EmbeddingOllamaClient, error) {
	base := params.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	if params.ApiKey != "" {
		headers["Authorization"] = "Bearer " + params.ApiKey
	}
	httpClient := &http.Client{
		Transport: &headerTransport{headers: headers, rt: http.DefaultTransport},
	}

	parallel := params.MaxConcurrentRequests
	if parallel <= 0 {
		parallel = 1
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &EmbeddingOllamaClient{
		embeddingModel: params.EmbeddingModel,
		dimensions:     params.Dimensions,
		maxTokens:      params.MaxTokens,
		timeout:        timeout,

		reqLock: semaphore.NewWeighted(parallel),

		Client: api.NewClient(u, httpClient),
	}, nil
}

// ResetMetrics clears all accumulated usage counters.
func (c *EmbeddingOllamaClient) ResetMetrics() { c.metrics.Reset() }

// GetMetrics returns the usage accumulated since the last reset.
func (c *EmbeddingOllamaClient) GetMetrics() ai.ModelMetrics { return c.metrics.Get() }
