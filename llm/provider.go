// Package llm provides the text-generation collaborator interface and the
// hosted provider adapters consumed by the chat layer.
package llm

import "context"

// Options tunes a single generation call.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Provider generates text from a prompt.
type Provider interface {
	// Predict returns a completion for the prompt.
	Predict(ctx context.Context, prompt string, opts Options) (string, error)

	// Name returns the provider name for logging.
	Name() string
}
