package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/saipachipulusu/portfolio-rag/types"
)

// maxInputBytes bounds the text sent to the hosted feature-extraction
// pipeline, which rejects very long inputs.
const maxInputBytes = 1000

// HuggingFaceConfig configures the Hugging Face inference API provider.
type HuggingFaceConfig struct {
	APIKey     string
	Model      string
	BaseURL    string // default https://api-inference.huggingface.co
	Dimensions int    // default 384 (all-MiniLM-L6-v2)
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables limiting
}

// HuggingFaceProvider embeds text through the hosted feature-extraction
// pipeline.
type HuggingFaceProvider struct {
	cfg     HuggingFaceConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewHuggingFaceProvider creates the provider. An empty API key is allowed
// at construction; calls will fail with an authentication error, letting
// the fallback chain move on.
func NewHuggingFaceProvider(cfg HuggingFaceConfig) *HuggingFaceProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-inference.huggingface.co"
	}
	if cfg.Model == "" {
		cfg.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 384
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 8 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &HuggingFaceProvider{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
	}
}

func (p *HuggingFaceProvider) Name() string    { return "huggingface" }
func (p *HuggingFaceProvider) Dimensions() int { return p.cfg.Dimensions }

type hfRequest struct {
	Inputs  string    `json:"inputs"`
	Options hfOptions `json:"options"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// EmbedQuery implements Provider.
func (p *HuggingFaceProvider) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	if p.cfg.APIKey == "" {
		return nil, types.NewError(types.ErrAuthentication, "huggingface api key not configured").
			WithProvider(p.Name())
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, types.NewError(types.ErrProviderTimeout, "rate limiter wait aborted").
				WithProvider(p.Name()).WithCause(err)
		}
	}

	// The hosted model rejects very long inputs; truncate rather than fail,
	// backing up to a rune boundary so the payload stays valid UTF-8.
	normalized := strings.TrimSpace(text)
	if len(normalized) > maxInputBytes {
		cut := maxInputBytes
		for cut > 0 && !utf8.RuneStart(normalized[cut]) {
			cut--
		}
		normalized = normalized[:cut]
	}

	body, err := json.Marshal(hfRequest{
		Inputs:  normalized,
		Options: hfOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "marshal embedding request").WithCause(err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s",
		strings.TrimRight(p.cfg.BaseURL, "/"), p.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "create embedding request").WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrProviderUnavailable, "huggingface request failed").
			WithProvider(p.Name()).WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "read embedding response").
			WithProvider(p.Name()).WithCause(err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, types.NewError(types.ErrRateLimited, "huggingface rate limited").
			WithProvider(p.Name()).WithRetryable(true)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, types.NewError(types.ErrUpstreamError,
			fmt.Sprintf("huggingface returned status %d: %s", resp.StatusCode, truncate(string(data), 200))).
			WithProvider(p.Name()).WithRetryable(resp.StatusCode >= 500)
	}

	vector, err := parseHFVector(data)
	if err != nil {
		return nil, types.NewError(types.ErrMalformedResponse, "unexpected embedding shape").
			WithProvider(p.Name()).WithCause(err)
	}
	return vector, nil
}

// EmbedDocuments implements Provider.
func (p *HuggingFaceProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	return embedEach(ctx, p, texts)
}

// parseHFVector accepts the two shapes the pipeline returns: a flat vector
// or a single-element batch of vectors.
func parseHFVector(data []byte) ([]float64, error) {
	var nested [][]float64
	if err := json.Unmarshal(data, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}

	var flat []float64
	if err := json.Unmarshal(data, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}

	return nil, fmt.Errorf("payload is neither a vector nor a vector batch")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
