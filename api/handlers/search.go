package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/saipachipulusu/portfolio-rag/api"
	"github.com/saipachipulusu/portfolio-rag/rag"
	"github.com/saipachipulusu/portfolio-rag/types"
)

// SearchHandler exposes the retrieval pipeline directly, without the
// generation step. Useful for debugging relevance and for clients that
// render sources themselves.
type SearchHandler struct {
	svc    *rag.Service
	logger *zap.Logger
}

// NewSearchHandler wires the search endpoint.
func NewSearchHandler(svc *rag.Service, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{
		svc:    svc,
		logger: logger.With(zap.String("component", "search_handler")),
	}
}

// HandleSearch serves POST /api/search.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if !RequirePost(w, r, h.logger) {
		return
	}

	var req api.SearchRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "query is required"), h.logger)
		return
	}

	resp := h.svc.Search(r.Context(), req.Query)
	WriteJSON(w, http.StatusOK, resp)
}
