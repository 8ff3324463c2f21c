package llm

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/saipachipulusu/portfolio-rag/types"
)

// OpenAIConfig configures the OpenAI chat-completion provider.
type OpenAIConfig struct {
	APIKey string
	Model  string // default gpt-3.5-turbo
}

// OpenAIProvider generates text through the OpenAI chat completions API.
type OpenAIProvider struct {
	cfg    OpenAIConfig
	client *openai.Client
}

// NewOpenAIProvider creates the provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.Model == "" {
		cfg.Model = openai.GPT3Dot5Turbo
	}
	return &OpenAIProvider{
		cfg:    cfg,
		client: openai.NewClient(cfg.APIKey),
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Predict implements Provider.
func (p *OpenAIProvider) Predict(ctx context.Context, prompt string, opts Options) (string, error) {
	if p.cfg.APIKey == "" {
		return "", types.NewError(types.ErrAuthentication, "openai api key not configured").
			WithProvider(p.Name())
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
	})
	if err != nil {
		return "", types.NewError(types.ErrProviderUnavailable, "openai completion failed").
			WithProvider(p.Name()).WithRetryable(true).WithCause(err)
	}
	if len(resp.Choices) == 0 {
		return "", types.NewError(types.ErrMalformedResponse, "openai returned no choices").
			WithProvider(p.Name())
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
