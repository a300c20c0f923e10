package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adoptly/apiserver/internal/services"
	"github.com/adoptly/apiserver/types"
)

type FavoriteHandler struct {
	favoriteService *services.FavoriteService
	logger          *slog.Logger
}

func NewFavoriteHandler(favoriteService *services.FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService, logger: logger}
}

// FavoriteRouter registers the signed-in user's favorites.
func FavoriteRouter(r chi.Router, favoriteService *services.FavoriteService, auth *AuthHandler, logger *slog.Logger) {
	handler := NewFavoriteHandler(favoriteService, logger)

	r.Use(auth.RequireAuth)
	r.Get("/", handler.List)
	r.Post("/{petID}", handler.Add)
	r.Delete("/{petID}", handler.Remove)
}

type FavoriteResponse struct {
	PetID     int  `json:"pet_id"`
	Favorited bool `json:"favorited"`
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	pets, err := h.favoriteService.List(r.Context(), userID)
	if err != nil {
		writeInternalError(w, r, h.logger, err, "failed to list favorites")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[[]types.Pet]{Data: pets})
}

// Add answers 201 the first time and 200 when the pet was already a favorite.
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	petID, err := parseID(r, "petID", "pet")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.favoriteService.Add(r.Context(), userID, petID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "pet not found", "failed to add favorite")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, FavoriteResponse{PetID: petID, Favorited: true})
}

func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	petID, err := parseID(r, "petID", "pet")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.favoriteService.Remove(r.Context(), userID, petID); err != nil {
		writeServiceError(w, r, h.logger, err, "pet not found", "failed to remove favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
