// Package embedding provides the embedding provider interface, the hosted
// provider adapters, and the deterministic local fallback used when every
// hosted provider is unavailable.
package embedding

import (
	"context"
)

// Provider turns text into fixed-dimension vectors.
type Provider interface {
	// EmbedQuery embeds a single piece of text.
	EmbedQuery(ctx context.Context, text string) ([]float64, error)

	// EmbedDocuments embeds multiple texts. Implementations may apply
	// EmbedQuery sequentially.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)

	// Name returns the provider name for logging.
	Name() string

	// Dimensions returns the provider's output vector length.
	Dimensions() int
}

// embedEach is the shared sequential EmbedDocuments implementation.
func embedEach(ctx context.Context, p Provider, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := p.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}
