package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adoptly/apiserver/internal/services"
	"github.com/adoptly/apiserver/types"
)

type AdminHandler struct {
	statsService *services.StatsService
	logger       *slog.Logger
}

func NewAdminHandler(statsService *services.StatsService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{statsService: statsService, logger: logger}
}

// AdminRouter registers the dashboard routes.
func AdminRouter(r chi.Router, statsService *services.StatsService, auth *AuthHandler, logger *slog.Logger) {
	handler := NewAdminHandler(statsService, logger)

	r.Use(auth.RequireAuth, auth.RequireRole(types.RoleAdmin))
	r.Get("/stats", handler.Stats)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Stats(r.Context())
	if err != nil {
		writeInternalError(w, r, h.logger, err, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
