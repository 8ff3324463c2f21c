package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saipachipulusu/portfolio-rag/api"
	"github.com/saipachipulusu/portfolio-rag/cache"
	"github.com/saipachipulusu/portfolio-rag/config"
	"github.com/saipachipulusu/portfolio-rag/embedding"
	"github.com/saipachipulusu/portfolio-rag/llm"
	"github.com/saipachipulusu/portfolio-rag/rag"
	"github.com/saipachipulusu/portfolio-rag/session"
)

// stubLLM returns a fixed answer, or an error when failing is set.
type stubLLM struct {
	answer  string
	failing bool
	prompts []string
}

func (s *stubLLM) Name() string { return "stub" }

func (s *stubLLM) Predict(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.failing {
		return "", errors.New("generation unavailable")
	}
	return s.answer, nil
}

type chatFixture struct {
	handler  *ChatHandler
	search   *SearchHandler
	health   *HealthHandler
	llm      *stubLLM
	sessions *session.MemoryStore
	svc      *rag.Service
}

// newFixture builds handlers over an empty data directory, so the RAG
// service starts degraded and serves static fallbacks.
func newFixture(t *testing.T) *chatFixture {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Data.Dir = t.TempDir()

	local := cache.NewTTLCache(cfg.Cache.MaxSize, cfg.Cache.DefaultTTL, nil)
	t.Cleanup(local.Close)
	responseCache := cache.NewResponseCache(local, nil, nil)

	store := rag.NewStore(cfg.Data.Dir, nil)
	svc := rag.NewService(cfg, store, embedding.NewLocalProvider(8), responseCache, nil, nil)

	model := &stubLLM{answer: "Sai is a machine learning engineer."}
	sessions := session.NewMemoryStore()

	return &chatFixture{
		handler:  NewChatHandler(svc, model, sessions, responseCache, cfg, nil, nil),
		search:   NewSearchHandler(svc, nil),
		health:   NewHealthHandler(svc, nil),
		llm:      model,
		sessions: sessions,
		svc:      svc,
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeChat(t *testing.T, rec *httptest.ResponseRecorder) api.ChatResponse {
	t.Helper()
	var resp api.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestChatAnswersWithGeneratedText(t *testing.T) {
	f := newFixture(t)

	rec := postJSON(t, f.handler.HandleChat, "/api/chat", api.ChatRequest{Message: "Tell me about his projects"})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeChat(t, rec)
	assert.Equal(t, "Sai is a machine learning engineer.", resp.Response)
	assert.NotEmpty(t, resp.SessionID)
	assert.False(t, resp.FromCache)

	// Retrieved context flows into the prompt.
	require.Len(t, f.llm.prompts, 1)
	assert.Contains(t, f.llm.prompts[0], "CONTEXT INFORMATION")
	assert.Contains(t, f.llm.prompts[0], "Tell me about his projects")
}

func TestChatGeneratesSessionIDWhenAbsent(t *testing.T) {
	f := newFixture(t)

	first := decodeChat(t, postJSON(t, f.handler.HandleChat, "/api/chat", api.ChatRequest{Message: "hello projects"}))
	assert.NotEmpty(t, first.SessionID)

	second := decodeChat(t, postJSON(t, f.handler.HandleChat, "/api/chat",
		api.ChatRequest{Message: "another question entirely", SessionID: "keep-me"}))
	assert.Equal(t, "keep-me", second.SessionID)
}

func TestChatSecondIdenticalQuestionFromCache(t *testing.T) {
	f := newFixture(t)

	first := decodeChat(t, postJSON(t, f.handler.HandleChat, "/api/chat", api.ChatRequest{Message: "what about his education"}))
	require.False(t, first.FromCache)

	second := decodeChat(t, postJSON(t, f.handler.HandleChat, "/api/chat", api.ChatRequest{Message: "What about his education"}))
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Response, second.Response)
	assert.Equal(t, first.Sources, second.Sources)

	// The cached path never reaches the model again.
	assert.Len(t, f.llm.prompts, 1)
}

func TestChatApologyOnGenerationFailure(t *testing.T) {
	f := newFixture(t)
	f.llm.failing = true

	rec := postJSON(t, f.handler.HandleChat, "/api/chat", api.ChatRequest{Message: "anything at all"})

	// Generation failures still answer HTTP 200.
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeChat(t, rec)
	assert.Equal(t, apologyResponse, resp.Response)
	assert.NotEmpty(t, resp.SessionID)
}

func TestChatThreadsHistoryIntoPrompt(t *testing.T) {
	f := newFixture(t)

	first := decodeChat(t, postJSON(t, f.handler.HandleChat, "/api/chat", api.ChatRequest{Message: "first question here"}))

	postJSON(t, f.handler.HandleChat, "/api/chat",
		api.ChatRequest{Message: "and a follow up", SessionID: first.SessionID})

	require.Len(t, f.llm.prompts, 2)
	assert.Contains(t, f.llm.prompts[1], "CONVERSATION SO FAR")
	assert.Contains(t, f.llm.prompts[1], "first question here")
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	f := newFixture(t)

	rec := postJSON(t, f.handler.HandleChat, "/api/chat", api.ChatRequest{Message: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatRejectsNonPost(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	f.handler.HandleChat(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestChatRejectsMalformedJSON(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("{nope")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.HandleChat(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpointReturnsOutcome(t *testing.T) {
	f := newFixture(t)

	rec := postJSON(t, f.search.HandleSearch, "/api/search", api.SearchRequest{Query: "tell me about technologies"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp rag.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// Empty data directory means the static fallback answers.
	assert.Equal(t, rag.SearchKeywordFallback, resp.SearchType)
	assert.NotEmpty(t, resp.Context)
}

func TestSearchEndpointRejectsEmptyQuery(t *testing.T) {
	f := newFixture(t)

	rec := postJSON(t, f.search.HandleSearch, "/api/search", api.SearchRequest{Query: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthReportsDegraded(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Initialize(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.health.HandleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "ready", resp.State)
	assert.True(t, resp.Degraded)
}
