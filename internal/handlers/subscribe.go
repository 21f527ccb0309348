package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/garlic-tiger/internal/services"
)

const (
	DefaultSubscribeSource = "garlic-tiger-game"
	maxSubscribeBodyBytes  = 16 << 10
)

type SubscribeRequest struct {
	Email  string `json:"email"`
	Source string `json:"source,omitempty"`
}

type SubscribeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubscribeHandler proxies email sign-ups to the CRM. It is called directly
// from browsers, so it answers CORS preflight itself.
type SubscribeHandler struct {
	subscriber    services.Subscriber
	defaultSource string
	logger        *slog.Logger
}

func NewSubscribeHandler(subscriber services.Subscriber, defaultSource string, logger *slog.Logger) *SubscribeHandler {
	if defaultSource == "" {
		defaultSource = DefaultSubscribeSource
	}
	return &SubscribeHandler{
		subscriber:    subscriber,
		defaultSource: defaultSource,
		logger:        logger,
	}
}

// ServeHTTP handles POST /api/subscribe
func (h *SubscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for subscribe endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SubscribeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubscribeBodyBytes)).Decode(&req); err != nil {
		h.logger.Error("Subscription error", "error", fmt.Errorf("failed to decode subscribe request: %w", err))
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	email := strings.TrimSpace(req.Email)
	if !IsPlausibleEmail(email) {
		writeError(w, h.logger, http.StatusBadRequest, "Valid email required")
		return
	}

	source := req.Source
	if source == "" {
		source = h.defaultSource
	}

	if err := h.subscriber.Subscribe(r.Context(), email, source); err != nil {
		switch {
		case errors.Is(err, services.ErrSubscriberNotConfigured):
			writeError(w, h.logger, http.StatusInternalServerError, "Server configuration error")
		case errors.Is(err, services.ErrUpstream):
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to subscribe")
		default:
			h.logger.Error("Subscription error", "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.logger.Info("Subscription recorded", "source", source)
	writeJSON(w, h.logger, http.StatusOK, SubscribeResponse{
		Success: true,
		Message: "Subscribed successfully",
	})
}

// IsPlausibleEmail is the only check applied before a lead is sent upstream:
// non-empty and containing an @.
func IsPlausibleEmail(email string) bool {
	return email != "" && strings.Contains(email, "@")
}
