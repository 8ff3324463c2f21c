package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/saipachipulusu/portfolio-rag/types"
)

// HuggingFaceConfig configures the Hugging Face text-generation provider.
type HuggingFaceConfig struct {
	APIKey  string
	Model   string // default microsoft/Phi-3-mini-4k-instruct
	BaseURL string
	Timeout time.Duration
}

// HuggingFaceProvider calls the hosted text-generation inference API.
type HuggingFaceProvider struct {
	cfg    HuggingFaceConfig
	client *http.Client
}

// NewHuggingFaceProvider creates the provider.
func NewHuggingFaceProvider(cfg HuggingFaceConfig) *HuggingFaceProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-inference.huggingface.co"
	}
	if cfg.Model == "" {
		cfg.Model = "microsoft/Phi-3-mini-4k-instruct"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HuggingFaceProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *HuggingFaceProvider) Name() string { return "huggingface" }

type hfGenerateRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters hfGenerateParams `json:"parameters"`
	Options    map[string]bool  `json:"options,omitempty"`
}

type hfGenerateParams struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfGenerateResult struct {
	GeneratedText string `json:"generated_text"`
}

type hfErrorResult struct {
	Error string `json:"error"`
}

// Predict implements Provider.
func (p *HuggingFaceProvider) Predict(ctx context.Context, prompt string, opts Options) (string, error) {
	if p.cfg.APIKey == "" {
		return "", types.NewError(types.ErrAuthentication, "huggingface api key not configured").
			WithProvider(p.Name())
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 512
	}

	body, err := json.Marshal(hfGenerateRequest{
		Inputs: prompt,
		Parameters: hfGenerateParams{
			MaxNewTokens:   opts.MaxTokens,
			Temperature:    opts.Temperature,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", types.NewError(types.ErrInternalError, "marshal generation request").WithCause(err)
	}

	url := fmt.Sprintf("%s/models/%s", strings.TrimRight(p.cfg.BaseURL, "/"), p.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", types.NewError(types.ErrInternalError, "create generation request").WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", types.NewError(types.ErrProviderUnavailable, "huggingface request failed").
			WithProvider(p.Name()).WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", types.NewError(types.ErrUpstreamError, "read generation response").
			WithProvider(p.Name()).WithCause(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", types.NewError(types.ErrUpstreamError,
			fmt.Sprintf("huggingface returned status %d", resp.StatusCode)).
			WithProvider(p.Name()).WithRetryable(resp.StatusCode >= 500)
	}

	// A cold model answers with {"error": "... loading ..."} and HTTP 200.
	var hfErr hfErrorResult
	if err := json.Unmarshal(data, &hfErr); err == nil && hfErr.Error != "" {
		return "", types.NewError(types.ErrProviderUnavailable, "model not ready: "+hfErr.Error).
			WithProvider(p.Name()).WithRetryable(true)
	}

	var results []hfGenerateResult
	if err := json.Unmarshal(data, &results); err != nil || len(results) == 0 || results[0].GeneratedText == "" {
		return "", types.NewError(types.ErrMalformedResponse, "unexpected generation payload").
			WithProvider(p.Name())
	}

	return strings.TrimSpace(results[0].GeneratedText), nil
}
