package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"document-rag-platform/models"
)

type fakeCompleter struct {
	answer     string
	err        error
	lastPrompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.answer, f.err
}

func TestRenderPrompt(t *testing.T) {
	prompt := RenderPrompt("What is the refund policy?", "[Source 1: policy.pdf (pdf), page 2]\nRefunds within 30 days.")

	if !strings.Contains(prompt, "Refunds within 30 days.") {
		t.Error("prompt missing the context block")
	}
	if !strings.Contains(prompt, "Question: What is the refund policy?") {
		t.Error("prompt missing the question")
	}
	if !strings.Contains(prompt, `say "I don't know."`) {
		t.Error("prompt missing the refusal instruction")
	}
	if strings.Index(prompt, "Context:") > strings.Index(prompt, "Question:") {
		t.Error("context should precede the question")
	}
}

func TestSynthesizePassesRenderedPrompt(t *testing.T) {
	fake := &fakeCompleter{answer: "Refunds are accepted within 30 days."}
	s := NewSynthesizer(fake)

	answer, err := s.Synthesize(context.Background(), "What is the refund policy?", "Refunds within 30 days.")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if answer != "Refunds are accepted within 30 days." {
		t.Errorf("unexpected answer: %q", answer)
	}
	if fake.lastPrompt != RenderPrompt("What is the refund policy?", "Refunds within 30 days.") {
		t.Errorf("completer received a different prompt: %q", fake.lastPrompt)
	}
}

func TestSynthesizePropagatesProviderError(t *testing.T) {
	provErr := &models.CompletionProviderError{Provider: "gemini", Status: 503, Message: "overloaded"}
	s := NewSynthesizer(&fakeCompleter{err: provErr})

	_, err := s.Synthesize(context.Background(), "anything", "context")
	var got *models.CompletionProviderError
	if !errors.As(err, &got) {
		t.Fatalf("expected CompletionProviderError, got %v", err)
	}
	if got.Status != 503 {
		t.Errorf("status lost in propagation: %d", got.Status)
	}
}
