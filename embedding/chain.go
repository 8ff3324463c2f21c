package embedding

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/saipachipulusu/portfolio-rag/types"
)

// FallbackChain tries providers in priority order until one succeeds. Each
// attempt runs under its own timeout; a timed-out attempt is abandoned and
// the chain moves on. With a LocalProvider as the last link the chain never
// fails, only degrades.
type FallbackChain struct {
	providers      []Provider
	attemptTimeout time.Duration
	logger         *zap.Logger
	onFallback     func(provider string)
}

// OnFallback registers a callback invoked with the failing provider's name
// each time the chain falls through to the next link.
func (c *FallbackChain) OnFallback(fn func(provider string)) {
	c.onFallback = fn
}

// NewFallbackChain creates a chain over the given providers, tried in
// order. attemptTimeout bounds each individual provider call.
func NewFallbackChain(providers []Provider, attemptTimeout time.Duration, logger *zap.Logger) *FallbackChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	if attemptTimeout <= 0 {
		attemptTimeout = 8 * time.Second
	}
	return &FallbackChain{
		providers:      providers,
		attemptTimeout: attemptTimeout,
		logger:         logger.With(zap.String("component", "embedding_chain")),
	}
}

// Name implements Provider.
func (c *FallbackChain) Name() string { return "fallback_chain" }

// Dimensions implements Provider, reporting the primary provider's
// dimensionality.
func (c *FallbackChain) Dimensions() int {
	if len(c.providers) == 0 {
		return 0
	}
	return c.providers[0].Dimensions()
}

// EmbedQuery implements Provider.
func (c *FallbackChain) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	var lastErr error

	for _, p := range c.providers {
		attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
		vector, err := p.EmbedQuery(attemptCtx, text)
		cancel()

		if err == nil {
			c.logger.Debug("embedding served",
				zap.String("provider", p.Name()),
				zap.Int("dimensions", len(vector)))
			return vector, nil
		}

		lastErr = err
		c.logger.Warn("embedding provider failed, falling through",
			zap.String("provider", p.Name()),
			zap.Error(err))
		if c.onFallback != nil {
			c.onFallback(p.Name())
		}

		// A cancelled parent context is not a provider failure; stop.
		if ctx.Err() != nil {
			return nil, types.NewError(types.ErrProviderTimeout, "embedding aborted by caller").
				WithCause(ctx.Err())
		}
	}

	return nil, types.NewError(types.ErrProviderExhausted, "all embedding providers failed").
		WithCause(lastErr)
}

// EmbedDocuments implements Provider.
func (c *FallbackChain) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	return embedEach(ctx, c, texts)
}
