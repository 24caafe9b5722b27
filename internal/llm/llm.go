// Package llm wraps the language-model providers behind one small
// prompt-completion interface.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyResponse indicates the model returned no usable candidate.
var ErrEmptyResponse = errors.New("llm: empty response from model")

// Client is a text-completion provider.
type Client interface {
	Name() string
	Close() error
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// New builds the configured provider client.
func New(ctx context.Context, provider, apiKey, model string) (Client, error) {
	switch provider {
	case "", "gemini":
		return NewGeminiClient(ctx, apiKey, model)
	case "groq":
		return NewGroqClient(apiKey, model)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", provider)
	}
}
