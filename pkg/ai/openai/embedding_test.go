package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEmbedding(t *testing.T) {
	var gotInput []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotInput = body.Input
		assert.Equal(t, "text-embedding-3-small", body.Model)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.1, 0.2, 0.3, 0.4]}],
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	}))
	defer srv.Close()

	client := NewEmbeddingOpenAIClient(NewEmbeddingOpenAIClientParams{
		EmbeddingModel: "text-embedding-3-small",
		EmbeddingURL:   srv.URL,
		EmbeddingKey:   "test",
		Dimensions:     3,
	})

	vec, err := client.GenerateEmbedding(context.Background(), []byte("  Attention Is All You Need "))
	require.NoError(t, err)
	assert.Equal(t, []string{"Attention Is All You Need"}, gotInput)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	m := client.GetMetrics()
	assert.Equal(t, 1, m.Requests)
	assert.Equal(t, 4, m.TotalTokens)
}

func TestGenerateEmbedding_EmptyInput(t *testing.T) {
	client := NewEmbeddingOpenAIClient(NewEmbeddingOpenAIClientParams{EmbeddingKey: "test"})

	_, err := client.GenerateEmbedding(context.Background(), []byte("   "))
	assert.ErrorIs(t, err, ai.ErrEmptyInput)
}
