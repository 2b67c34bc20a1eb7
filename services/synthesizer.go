package services

import (
	"context"
	"fmt"

	"document-rag-platform/internal/ai"
)

// answerPromptTemplate grounds the completion in the retrieved context.
// The instruction explicitly permits "I don't know" so the model is not
// pushed into fabricating answers.
const answerPromptTemplate = `You are a helpful assistant answering questions about a document collection.
Answer the question using only the information in the context below.
If the context does not contain the answer, say "I don't know."

Context:
%s

Question: %s

Answer:`

// Synthesizer renders the grounded prompt and calls the completion
// provider deterministically.
type Synthesizer struct {
	completer ai.Completer
}

func NewSynthesizer(completer ai.Completer) *Synthesizer {
	return &Synthesizer{completer: completer}
}

// Synthesize returns the plain-text answer for a question grounded in
// the supplied context. Provider failures pass through unretried.
func (s *Synthesizer) Synthesize(ctx context.Context, question, contextText string) (string, error) {
	return s.completer.Complete(ctx, RenderPrompt(question, contextText))
}

// RenderPrompt fills the grounded answer template.
func RenderPrompt(question, contextText string) string {
	return fmt.Sprintf(answerPromptTemplate, contextText, question)
}
