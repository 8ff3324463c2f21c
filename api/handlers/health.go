package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/saipachipulusu/portfolio-rag/api"
	"github.com/saipachipulusu/portfolio-rag/rag"
)

// HealthHandler reports liveness and whether the pipeline is serving
// real retrieval or static fallbacks.
type HealthHandler struct {
	svc    *rag.Service
	logger *zap.Logger
}

// NewHealthHandler wires the health endpoint.
func NewHealthHandler(svc *rag.Service, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{svc: svc, logger: logger}
}

// HandleHealth serves GET /healthz. The process is healthy even when
// degraded; deployment probes should not restart a service that is
// merely missing data.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if h.svc.Degraded() {
		status = "degraded"
	}
	WriteJSON(w, http.StatusOK, api.HealthResponse{
		Status:   status,
		State:    h.svc.State().String(),
		Degraded: h.svc.Degraded(),
	})
}
