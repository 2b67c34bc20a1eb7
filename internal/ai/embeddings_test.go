package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"document-rag-platform/internal/config"
	"document-rag-platform/models"
)

func TestModelDimension(t *testing.T) {
	cases := []struct {
		model string
		want  int
	}{
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"text-embedding-ada-002", 1536},
		{"voyage-3", 1024},
		{"voyage-3-lite", 512},
		{"text-embedding-004", 768},
		{"made-up-model", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := ModelDimension(tc.model); got != tc.want {
			t.Errorf("ModelDimension(%q) = %d, want %d", tc.model, got, tc.want)
		}
	}
}

func TestNewEmbeddingClientConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  *config.Config
	}{
		{
			name: "unknown provider",
			cfg:  &config.Config{EmbeddingsProvider: "cohere", EmbeddingTimeout: 30},
		},
		{
			name: "missing api key",
			cfg:  &config.Config{EmbeddingsProvider: ProviderOpenAI, OpenAIEmbeddingModel: "text-embedding-3-small", EmbeddingTimeout: 30},
		},
		{
			name: "unknown model",
			cfg:  &config.Config{EmbeddingsProvider: ProviderOpenAI, OpenAIAPIKey: "sk-test", OpenAIEmbeddingModel: "text-embedding-99", EmbeddingTimeout: 30},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEmbeddingClient(tc.cfg, "")
			var cfgErr *models.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestNewEmbeddingClientDimensions(t *testing.T) {
	openai, err := NewEmbeddingClient(&config.Config{
		EmbeddingsProvider: ProviderOpenAI, OpenAIAPIKey: "sk-test",
		OpenAIEmbeddingModel: "text-embedding-3-small", EmbeddingTimeout: 30,
	}, "")
	if err != nil {
		t.Fatalf("openai client: %v", err)
	}
	if openai.Dimension() != 1536 || openai.Provider() != ProviderOpenAI {
		t.Errorf("openai client: dim=%d provider=%s", openai.Dimension(), openai.Provider())
	}

	// Explicit provider argument overrides the configured default.
	voyage, err := NewEmbeddingClient(&config.Config{
		EmbeddingsProvider: ProviderOpenAI, OpenAIAPIKey: "sk-test", OpenAIEmbeddingModel: "text-embedding-3-small",
		VoyageAPIKey: "pa-test", VoyageEmbeddingModel: "voyage-3", EmbeddingTimeout: 30,
	}, ProviderVoyage)
	if err != nil {
		t.Fatalf("voyage client: %v", err)
	}
	if voyage.Dimension() != 1024 || voyage.Provider() != ProviderVoyage {
		t.Errorf("voyage client: dim=%d provider=%s", voyage.Dimension(), voyage.Provider())
	}
}

func newTestEmbeddingClient(t *testing.T, handler http.HandlerFunc) *EmbeddingClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewEmbeddingClient(&config.Config{
		EmbeddingsProvider: ProviderOpenAI, OpenAIAPIKey: "sk-test",
		OpenAIEmbeddingModel: "text-embedding-3-small", EmbeddingTimeout: 30,
	}, "")
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	client.endpoint = server.URL
	return client
}

func TestEmbedBatchOrdersByIndex(t *testing.T) {
	client := newTestEmbeddingClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("missing bearer auth: %q", got)
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if len(req.Input) != 3 || req.Model != "text-embedding-3-small" {
			t.Errorf("unexpected request: %+v", req)
		}

		// Return the items out of order; the index field is authoritative.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 2, "embedding": []float32{0.3}},
				{"index": 0, "embedding": []float32{0.1}},
				{"index": 1, "embedding": []float32{0.2}},
			},
		})
	})

	vecs, err := client.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if vecs[0][0] != 0.1 || vecs[1][0] != 0.2 || vecs[2][0] != 0.3 {
		t.Errorf("vectors not re-ordered by index: %v", vecs)
	}
}

func TestEmbedBatchProviderError(t *testing.T) {
	client := newTestEmbeddingClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limit exceeded"}`))
	})

	_, err := client.EmbedBatch(context.Background(), []string{"a"})
	var provErr *models.EmbeddingProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected EmbeddingProviderError, got %v", err)
	}
	if provErr.Status != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", provErr.Status)
	}
	if provErr.Provider != ProviderOpenAI {
		t.Errorf("provider = %q", provErr.Provider)
	}
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	client := newTestEmbeddingClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 0, "embedding": []float32{0.1}},
			},
		})
	})

	_, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
	var provErr *models.EmbeddingProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected EmbeddingProviderError, got %v", err)
	}
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	client := newTestEmbeddingClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent for empty input")
	})

	vecs, err := client.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(vecs) != 0 {
		t.Errorf("expected no vectors, got %d", len(vecs))
	}
}

func TestEmbedSingle(t *testing.T) {
	client := newTestEmbeddingClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 0, "embedding": []float32{0.5, 0.25}},
			},
		})
	})

	vec, err := client.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 {
		t.Errorf("unexpected vector: %v", vec)
	}
}
