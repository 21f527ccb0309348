package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/garlic-tiger/pkg/storage"
)

type HealthResponse struct {
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Service    string         `json:"service"`
	Components map[string]any `json:"components"`
}

// SubscriberStatus reports whether the CRM proxy has credentials. A missing
// configuration is reported but does not make the service unhealthy.
type SubscriberStatus interface {
	Configured() bool
}

type HealthHandler struct {
	storage    storage.Storage
	subscriber SubscriberStatus
	logger     *slog.Logger
}

func NewHealthHandler(storage storage.Storage, subscriber SubscriberStatus, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		storage:    storage,
		subscriber: subscriber,
		logger:     logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]any)
	overallStatus := "healthy"

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("Storage health check failed", "error", err)
		components["storage"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["storage"] = "healthy"
	}

	if pack, err := h.storage.GetQuizPack(ctx); err != nil {
		h.logger.Warn("Quiz pack health check failed", "error", err)
		components["quiz_pack"] = map[string]any{"status": "unhealthy"}
		overallStatus = "degraded"
	} else {
		components["quiz_pack"] = map[string]any{"status": "healthy", "quizzes": pack.Len()}
	}

	if h.subscriber != nil && h.subscriber.Configured() {
		components["subscriber"] = "configured"
	} else {
		components["subscriber"] = "unconfigured"
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "garlic-tiger",
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, h.logger, statusCode, response)
}
