package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/saipachipulusu/portfolio-rag/types"
)

// FallbackChain tries generation providers in priority order. Unlike the
// embedding chain it has no guaranteed terminal provider; callers are
// expected to substitute a templated response when the chain is exhausted.
type FallbackChain struct {
	providers  []Provider
	logger     *zap.Logger
	onFallback func(provider string)
}

// OnFallback registers a callback invoked with the failing provider's name
// each time the chain falls through to the next link.
func (c *FallbackChain) OnFallback(fn func(provider string)) {
	c.onFallback = fn
}

// NewFallbackChain creates a chain over the given providers, tried in order.
func NewFallbackChain(providers []Provider, logger *zap.Logger) *FallbackChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackChain{
		providers: providers,
		logger:    logger.With(zap.String("component", "llm_chain")),
	}
}

func (c *FallbackChain) Name() string { return "fallback_chain" }

// Predict implements Provider.
func (c *FallbackChain) Predict(ctx context.Context, prompt string, opts Options) (string, error) {
	var lastErr error

	for _, p := range c.providers {
		text, err := p.Predict(ctx, prompt, opts)
		if err == nil {
			c.logger.Debug("completion served", zap.String("provider", p.Name()))
			return text, nil
		}

		lastErr = err
		c.logger.Warn("llm provider failed, falling through",
			zap.String("provider", p.Name()),
			zap.Error(err))
		if c.onFallback != nil {
			c.onFallback(p.Name())
		}

		if ctx.Err() != nil {
			return "", types.NewError(types.ErrProviderTimeout, "generation aborted by caller").
				WithCause(ctx.Err())
		}
	}

	return "", types.NewError(types.ErrProviderExhausted, "all llm providers failed").
		WithCause(lastErr)
}
