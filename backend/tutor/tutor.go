// Package tutor answers free-text learner questions through a text
// generation provider.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aitutor/backend/llm"
)

var ErrEmptyQuestion = errors.New("No question provided")

// ServiceError wraps any failure of the upstream provider.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	if errors.Is(e.Err, llm.ErrMissingAPIKey) {
		var mk *llm.MissingKeyError
		if errors.As(e.Err, &mk) {
			return mk.Error()
		}
	}
	return "AI Error: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }

const promptTemplate = `You are a friendly and intelligent AI tutor. A student has asked you a question.

Question: "%s"

Instructions:
1. Provide a clear and helpful explanation.
2. Do NOT answer in just one line. Use 3 to 5 sentences to explain the concept properly.
3. If possible, give a small example to make it easy to understand.
4. Keep the tone encouraging.`

// BuildPrompt wraps a learner question in the tutor instructions.
func BuildPrompt(question string) string {
	return fmt.Sprintf(promptTemplate, question)
}

type Service struct {
	Provider  llm.Provider
	MaxTokens int
}

func NewService(provider llm.Provider, maxTokens int) *Service {
	return &Service{Provider: provider, MaxTokens: maxTokens}
}

// Ask returns the provider's answer verbatim.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	resp, err := s.Provider.Generate(ctx, llm.UserPrompt(BuildPrompt(question), s.MaxTokens))
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	return resp.Text, nil
}
