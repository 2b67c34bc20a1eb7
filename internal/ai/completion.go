package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"document-rag-platform/internal/config"
	"document-rag-platform/internal/logger"
	"document-rag-platform/models"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

const openAIChatURL = "https://api.openai.com/v1/chat/completions"

// Completer renders a grounded prompt into plain answer text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompletionClient calls the configured completion provider with
// temperature 0 and a bounded output-token budget. Calls go through a
// circuit breaker and a rate limiter so a misbehaving provider does not
// get hammered.
type CompletionClient struct {
	provider  string
	model     string
	apiKey    string
	maxTokens int
	breaker   *gobreaker.CircuitBreaker
	limiter   *rate.Limiter
	genClient *genai.Client
	http      *http.Client
	endpoint  string
}

func NewCompletionClient(cfg *config.Config) (*CompletionClient, error) {
	c := &CompletionClient{
		provider:  cfg.CompletionProvider,
		model:     cfg.CompletionModel,
		maxTokens: cfg.CompletionMaxTokens,
		http:      &http.Client{Timeout: time.Duration(cfg.CompletionTimeout) * time.Second},
		endpoint:  openAIChatURL,
	}

	switch cfg.CompletionProvider {
	case ProviderGemini:
		c.apiKey = cfg.GeminiAPIKey
		if c.model == "" {
			c.model = "gemini-2.0-flash"
		}
		client, err := genai.NewClient(context.Background(), option.WithAPIKey(c.apiKey))
		if err != nil {
			return nil, err
		}
		c.genClient = client
	case ProviderOpenAI:
		c.apiKey = cfg.OpenAIAPIKey
		if c.model == "" {
			c.model = "gpt-4o-mini"
		}
	default:
		return nil, &models.ConfigurationError{Field: "completion_provider", Reason: fmt.Sprintf("unknown provider %q", cfg.CompletionProvider)}
	}

	if c.apiKey == "" {
		return nil, &models.ConfigurationError{Field: "completion_provider", Reason: fmt.Sprintf("missing API key for provider %q", cfg.CompletionProvider)}
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "CompletionAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	c.limiter = rate.NewLimiter(rate.Limit(2), 5)

	return c, nil
}

// Complete calls the provider deterministically (temperature 0) and
// returns plain text. Provider failures become CompletionProviderError;
// no fallback answer is fabricated.
func (c *CompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &models.CompletionProviderError{Provider: c.provider, Message: err.Error()}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		switch c.provider {
		case ProviderGemini:
			return c.completeGemini(ctx, prompt)
		default:
			return c.completeOpenAI(ctx, prompt)
		}
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return "", &models.CompletionProviderError{Provider: c.provider, Message: "provider temporarily unavailable (circuit open)"}
		}
		var provErr *models.CompletionProviderError
		if errors.As(err, &provErr) {
			return "", err
		}
		return "", &models.CompletionProviderError{Provider: c.provider, Message: err.Error()}
	}

	return result.(string), nil
}

func (c *CompletionClient) completeGemini(ctx context.Context, prompt string) (string, error) {
	model := c.genClient.GenerativeModel(c.model)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(int32(c.maxTokens))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &models.CompletionProviderError{Provider: c.provider, Message: err.Error()}
	}

	var answer string
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				answer += string(text)
			}
		}
	}
	if answer == "" {
		return "", &models.CompletionProviderError{Provider: c.provider, Message: "empty completion"}
	}
	return answer, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *CompletionClient) completeOpenAI(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", &models.CompletionProviderError{Provider: c.provider, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &models.CompletionProviderError{Provider: c.provider, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &models.CompletionProviderError{Provider: c.provider, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &models.CompletionProviderError{Provider: c.provider, Status: resp.StatusCode, Message: string(msg)}
	}

	var apiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", &models.CompletionProviderError{Provider: c.provider, Message: "malformed response: " + err.Error()}
	}
	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message.Content == "" {
		return "", &models.CompletionProviderError{Provider: c.provider, Message: "empty completion"}
	}
	return apiResp.Choices[0].Message.Content, nil
}

// Close releases the underlying SDK client, if any.
func (c *CompletionClient) Close() error {
	if c.genClient != nil {
		return c.genClient.Close()
	}
	return nil
}
