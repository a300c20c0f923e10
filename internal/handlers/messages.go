package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adoptly/apiserver/internal/services"
	"github.com/adoptly/apiserver/types"
)

// MessageHandler serves the public contact form and the admin inbox.
type MessageHandler struct {
	messageService *services.MessageService
	logger         *slog.Logger
}

func NewMessageHandler(messageService *services.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messageService: messageService, logger: logger}
}

// MessageRouter registers contact routes. limiter may be nil.
func MessageRouter(r chi.Router, messageService *services.MessageService, auth *AuthHandler, limiter *RateLimiter, logger *slog.Logger) {
	handler := NewMessageHandler(messageService, logger)

	r.With(limiter.Middleware).Post("/send", handler.Send)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth, auth.RequireRole(types.RoleAdmin))
		r.Get("/notifications", handler.List)
		r.Delete("/{messageID}", handler.Delete)
	})
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var in services.MessageInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.messageService.Send(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "", "failed to send message")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messageService.List(r.Context())
	if err != nil {
		writeInternalError(w, r, h.logger, err, "failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[[]types.Message]{Data: messages})
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "messageID", "message")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.messageService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, err, "message not found", "failed to delete message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
