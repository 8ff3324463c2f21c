package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saipachipulusu/portfolio-rag/api"
	"github.com/saipachipulusu/portfolio-rag/cache"
	"github.com/saipachipulusu/portfolio-rag/config"
	"github.com/saipachipulusu/portfolio-rag/internal/metrics"
	"github.com/saipachipulusu/portfolio-rag/llm"
	"github.com/saipachipulusu/portfolio-rag/rag"
	"github.com/saipachipulusu/portfolio-rag/session"
	"github.com/saipachipulusu/portfolio-rag/types"
)

const (
	chatCacheNamespace = "chat"
	historyLimit       = 10

	apologyResponse = "Sorry, I encountered an error while processing your request. Please try again."
)

// cachedChat is the chat-level cache entry: the generated text plus its
// citations, keyed by the normalized question.
type cachedChat struct {
	Text       string   `json:"text"`
	Sources    []string `json:"sources"`
	Confidence int      `json:"confidence"`
}

// ChatHandler answers portfolio questions: retrieve context through the
// RAG service, generate with the provider chain, and thread the
// conversation through the session store.
type ChatHandler struct {
	svc      *rag.Service
	provider llm.Provider
	sessions session.Store
	cache    *cache.ResponseCache
	cfg      *config.Config
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewChatHandler wires the chat endpoint.
func NewChatHandler(svc *rag.Service, provider llm.Provider, sessions session.Store, responseCache *cache.ResponseCache, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		svc:      svc,
		provider: provider,
		sessions: sessions,
		cache:    responseCache,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.With(zap.String("component", "chat_handler")),
	}
}

// HandleChat serves POST /api/chat. Failures past request validation
// never surface as HTTP errors: the endpoint degrades to an apology
// answer at HTTP 200 so the UI chat widget always has something to
// render.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if !RequirePost(w, r, h.logger) {
		return
	}

	var req api.ChatRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "message is required"), h.logger)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := r.Context()

	key := cache.QueryKey(chatCacheNamespace, req.Message)
	var cached cachedChat
	if h.cache != nil && h.cache.Get(ctx, key, &cached) {
		h.metrics.CacheHit(chatCacheNamespace)
		WriteJSON(w, http.StatusOK, api.ChatResponse{
			Response:   cached.Text,
			Sources:    cached.Sources,
			SessionID:  sessionID,
			Confidence: cached.Confidence,
			FromCache:  true,
		})
		return
	}
	h.metrics.CacheMiss(chatCacheNamespace)

	start := time.Now()
	search := h.svc.Search(ctx, req.Message)
	sources := sourceLabels(search.Results)

	history, err := h.sessions.History(ctx, sessionID, historyLimit)
	if err != nil {
		h.logger.Warn("session history unavailable", zap.Error(err))
	}

	prompt := buildPrompt(search.Context, history, req.Message)
	answer, err := h.provider.Predict(ctx, prompt, llm.Options{
		MaxTokens:   h.cfg.LLM.MaxTokens,
		Temperature: h.cfg.LLM.Temperature,
	})
	if err != nil {
		h.logger.Error("generation failed", zap.Error(err))
		WriteJSON(w, http.StatusOK, api.ChatResponse{
			Response:  apologyResponse,
			SessionID: sessionID,
		})
		return
	}

	h.logger.Info("chat answered",
		zap.String("search_type", search.SearchType),
		zap.Int("confidence", search.Confidence),
		zap.Duration("duration", time.Since(start)))

	now := time.Now().UTC()
	if err := h.sessions.Append(ctx, sessionID,
		session.Message{Role: session.RoleUser, Content: req.Message, CreatedAt: now},
		session.Message{Role: session.RoleAssistant, Content: answer, CreatedAt: now},
	); err != nil {
		h.logger.Warn("session append failed", zap.Error(err))
	}

	if h.cache != nil {
		h.cache.Set(ctx, key, cachedChat{
			Text:       answer,
			Sources:    sources,
			Confidence: search.Confidence,
		}, h.cfg.Cache.DefaultTTL)
	}

	WriteJSON(w, http.StatusOK, api.ChatResponse{
		Response:   answer,
		Sources:    sources,
		SessionID:  sessionID,
		Confidence: search.Confidence,
	})
}

// sourceLabels maps chunk provenance to display citations, deduplicated
// in first-seen order.
func sourceLabels(results []rag.SearchResult) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, r := range results {
		label := sourceLabel(r.Metadata.SourceType)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}

func sourceLabel(sourceType string) string {
	switch sourceType {
	case "resume":
		return "Resume"
	case "medium":
		return "Medium Article"
	case "twitter":
		return "Twitter"
	default:
		return sourceType
	}
}

// buildPrompt grounds the model in the retrieved context and recent
// conversation turns.
func buildPrompt(context string, history []session.Message, question string) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant for Sai Chaitanya Pachipulusu, a Machine Learning Engineer specialized in RAG systems and LLMs.\n\n")
	b.WriteString("CONTEXT INFORMATION:\n")
	b.WriteString(context)
	b.WriteString("\n\n")

	if len(history) > 0 {
		b.WriteString("CONVERSATION SO FAR:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(msg.Role), msg.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString("Based ONLY on the context information provided above, answer the following question from a user.\n")
	b.WriteString(`If the answer cannot be found in the context, say "I don't have specific information about that, but I'd be happy to share what I know about Sai's experience with ML, AI, and data engineering."`)
	b.WriteString("\n\nUSER QUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nANSWER:")
	return b.String()
}
