package llm

import (
	"context"
	"fmt"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// ApplyOptions folds opts over defaults.
func ApplyOptions(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// TokenFunc receives incremental output. Returning an error stops the
// invocation and is returned from GenerateStream.
type TokenFunc func(ctx context.Context, token string) error

// LanguageModel defines the contract for any LLM backend
type LanguageModel interface {
	// Generate sends a single prompt and waits for the full completion.
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// GenerateStream delivers the completion token by token through onToken
	// and returns the full text once the model is done.
	GenerateStream(ctx context.Context, prompt string, onToken TokenFunc, options ...Option) (string, error)
}

// ModelError wraps a provider-side failure (rate limit, timeout, bad response).
type ModelError struct {
	Provider string
	Cause    error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s model error: %v", e.Provider, e.Cause)
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}

// NewModelError returns err unchanged when it is already a *ModelError.
func NewModelError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if me, ok := err.(*ModelError); ok {
		return me
	}
	return &ModelError{Provider: provider, Cause: err}
}
