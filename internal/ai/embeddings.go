package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"document-rag-platform/internal/config"
	"document-rag-platform/models"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	openAIEmbeddingsURL = "https://api.openai.com/v1/embeddings"
	voyageEmbeddingsURL = "https://api.voyageai.com/v1/embeddings"
)

// Embedder turns chunk or query text into fixed-length vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Provider() string
	Dimension() int
}

// EmbeddingClient calls the configured embedding provider. OpenAI and
// Voyage speak the same JSON shape; Google goes through the genai SDK.
type EmbeddingClient struct {
	provider string
	model    string
	apiKey   string
	dim      int
	endpoint string
	http     *http.Client
}

// NewEmbeddingClient builds a client for the given provider, falling
// back to the configured default when provider is empty.
func NewEmbeddingClient(cfg *config.Config, provider string) (*EmbeddingClient, error) {
	if provider == "" {
		provider = cfg.EmbeddingsProvider
	}

	c := &EmbeddingClient{
		provider: provider,
		http:     &http.Client{Timeout: time.Duration(cfg.EmbeddingTimeout) * time.Second},
	}

	switch provider {
	case ProviderOpenAI:
		c.model = cfg.OpenAIEmbeddingModel
		c.apiKey = cfg.OpenAIAPIKey
		c.endpoint = openAIEmbeddingsURL
	case ProviderVoyage:
		c.model = cfg.VoyageEmbeddingModel
		c.apiKey = cfg.VoyageAPIKey
		c.endpoint = voyageEmbeddingsURL
	case ProviderGoogle:
		c.model = cfg.GoogleEmbeddingModel
		c.apiKey = cfg.GeminiAPIKey
	default:
		return nil, &models.ConfigurationError{Field: "embeddings_provider", Reason: fmt.Sprintf("unknown provider %q", provider)}
	}

	if c.apiKey == "" {
		return nil, &models.ConfigurationError{Field: "embeddings_provider", Reason: fmt.Sprintf("missing API key for provider %q", provider)}
	}

	c.dim = ModelDimension(c.model)
	if c.dim == 0 {
		return nil, &models.ConfigurationError{Field: "embedding_model", Reason: fmt.Sprintf("unknown model %q", c.model)}
	}

	return c, nil
}

func (c *EmbeddingClient) Provider() string { return c.provider }

func (c *EmbeddingClient) Model() string { return c.model }

// Dimension is the fixed output vector length of the active model.
func (c *EmbeddingClient) Dimension() int { return c.dim }

func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, &models.EmbeddingProviderError{Provider: c.provider, Message: "empty embedding result"}
	}
	return vecs[0], nil
}

func (c *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if c.provider == ProviderGoogle {
		return c.embedGoogle(ctx, texts)
	}
	return c.embedHTTP(ctx, texts)
}

// embeddingRequest is the request body shared by the OpenAI-compatible
// embedding APIs.
type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *EmbeddingClient) embedHTTP(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Input: texts, Model: c.model})
	if err != nil {
		return nil, &models.EmbeddingProviderError{Provider: c.provider, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &models.EmbeddingProviderError{Provider: c.provider, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &models.EmbeddingProviderError{Provider: c.provider, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &models.EmbeddingProviderError{Provider: c.provider, Status: resp.StatusCode, Message: string(msg)}
	}

	var apiResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, &models.EmbeddingProviderError{Provider: c.provider, Message: "malformed response: " + err.Error()}
	}
	if len(apiResp.Data) != len(texts) {
		return nil, &models.EmbeddingProviderError{Provider: c.provider,
			Message: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(apiResp.Data))}
	}

	result := make([][]float32, len(texts))
	for _, d := range apiResp.Data {
		if d.Index < 0 || d.Index >= len(result) {
			return nil, &models.EmbeddingProviderError{Provider: c.provider,
				Message: fmt.Sprintf("embedding index %d out of range", d.Index)}
		}
		result[d.Index] = d.Embedding
	}
	return result, nil
}

func (c *EmbeddingClient) embedGoogle(ctx context.Context, texts []string) ([][]float32, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, &models.EmbeddingProviderError{Provider: c.provider, Message: err.Error()}
	}
	defer client.Close()

	em := client.EmbeddingModel(c.model)
	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, &models.EmbeddingProviderError{Provider: c.provider, Message: err.Error()}
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &models.EmbeddingProviderError{Provider: c.provider,
			Message: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))}
	}

	result := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, &models.EmbeddingProviderError{Provider: c.provider, Message: "no embedding returned"}
		}
		result[i] = emb.Values
	}
	return result, nil
}
