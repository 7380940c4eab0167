package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/docsync/pkg/api"
)

// EpochSource отдает текущую эпоху координатора
type EpochSource interface {
	LastEpoch() int64
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	epochs  EpochSource
	version string
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, epochs EpochSource, version string) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		epochs:  epochs,
		version: version,
	}
}

// Health обрабатывает GET /health
// Health check endpoint для мониторинга
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{
		Status:  "ok",
		Version: h.version,
	}
	if h.epochs != nil {
		resp.Epoch = h.epochs.LastEpoch()
	}
	sendJSON(h.logger, w, resp, http.StatusOK)
}
