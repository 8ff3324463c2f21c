package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// LocalProvider is the deterministic terminal fallback. It derives a vector
// purely from a hash of the input text, so it can never fail and the same
// text always produces the same vector. Retrieval quality degrades to
// little more than exact-duplicate matching, which is still preferable to
// blocking the caller.
type LocalProvider struct {
	dimensions int
}

// NewLocalProvider creates a local provider emitting vectors of the given
// dimension (default 384, matching the hosted sentence-transformer).
func NewLocalProvider(dimensions int) *LocalProvider {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &LocalProvider{dimensions: dimensions}
}

func (p *LocalProvider) Name() string    { return "local" }
func (p *LocalProvider) Dimensions() int { return p.dimensions }

// EmbedQuery implements Provider. It never returns an error.
func (p *LocalProvider) EmbedQuery(_ context.Context, text string) ([]float64, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := float64(h.Sum64() % (1 << 31))

	vector := make([]float64, p.dimensions)
	for i := range vector {
		vector[i] = math.Sin(seed+float64(i)) * 0.1
	}
	return vector, nil
}

// EmbedDocuments implements Provider.
func (p *LocalProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	return embedEach(ctx, p, texts)
}
