package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/shaikwasi806/bank-app/internal/middleware"
	"github.com/shaikwasi806/bank-app/internal/relay"
)

// ChatHandler relays chat completion requests to the upstream provider.
type ChatHandler struct {
	relay  *relay.Client
	logger *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(client *relay.Client, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		relay:  client,
		logger: logger,
	}
}

// Chat handles POST /api/ai/chat. The body must be valid JSON; beyond that
// it is forwarded untouched and the upstream's response is relayed back.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if !json.Valid(payload) {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	resp, err := h.relay.Relay(r.Context(), payload)
	if err != nil {
		if errors.Is(err, relay.ErrUpstreamUnavailable) {
			h.logger.Error("chat_relay_failed",
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
			writeError(w, http.StatusInternalServerError, "UPSTREAM_UNAVAILABLE", "AI service unavailable")
			return
		}
		h.logger.Error("internal_error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}
