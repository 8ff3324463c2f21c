package embedding

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/saipachipulusu/portfolio-rag/types"
)

// OpenAIConfig configures the OpenAI embedding provider.
type OpenAIConfig struct {
	APIKey     string
	Model      string // default text-embedding-ada-002
	Dimensions int    // default 1536 for ada-002
}

// OpenAIProvider embeds text through the OpenAI embeddings API. It is the
// secondary hosted provider in the fallback chain.
type OpenAIProvider struct {
	cfg    OpenAIConfig
	client *openai.Client
}

// NewOpenAIProvider creates the provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.Model == "" {
		cfg.Model = string(openai.AdaEmbeddingV2)
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1536
	}
	return &OpenAIProvider{
		cfg:    cfg,
		client: openai.NewClient(cfg.APIKey),
	}
}

func (p *OpenAIProvider) Name() string    { return "openai" }
func (p *OpenAIProvider) Dimensions() int { return p.cfg.Dimensions }

// EmbedQuery implements Provider.
func (p *OpenAIProvider) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vectors, err := p.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments implements Provider. OpenAI supports batching natively.
func (p *OpenAIProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	if p.cfg.APIKey == "" {
		return nil, types.NewError(types.ErrAuthentication, "openai api key not configured").
			WithProvider(p.Name())
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(p.cfg.Model),
	})
	if err != nil {
		return nil, types.NewError(types.ErrProviderUnavailable, "openai embeddings request failed").
			WithProvider(p.Name()).WithRetryable(true).WithCause(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, types.NewError(types.ErrMalformedResponse, "openai returned wrong embedding count").
			WithProvider(p.Name())
	}

	vectors := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float64, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float64(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}
