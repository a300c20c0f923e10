package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adoptly/apiserver/internal/services"
	"github.com/adoptly/apiserver/types"
)

// AdoptionHandler serves the adoption request lifecycle.
type AdoptionHandler struct {
	adoptionService *services.AdoptionService
	logger          *slog.Logger
}

func NewAdoptionHandler(adoptionService *services.AdoptionService, logger *slog.Logger) *AdoptionHandler {
	return &AdoptionHandler{adoptionService: adoptionService, logger: logger}
}

// AdoptionRouter registers adoption routes. Every route needs a signed-in
// user; review routes need an admin.
func AdoptionRouter(r chi.Router, adoptionService *services.AdoptionService, auth *AuthHandler, logger *slog.Logger) {
	handler := NewAdoptionHandler(adoptionService, logger)

	r.Use(auth.RequireAuth)
	r.Post("/", handler.Submit)
	r.Get("/", handler.ListMine)
	r.Get("/adopted", handler.AdoptedPets)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(types.RoleAdmin))
		r.Get("/all", handler.ListAll)
		r.Patch("/{adoptionID}/approve", handler.Approve)
		r.Patch("/{adoptionID}/reject", handler.Reject)
	})
}

func (h *AdoptionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var in services.AdoptionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := h.adoptionService.Submit(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "pet not found", "failed to create adoption")
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *AdoptionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.adoptionService.ListMine(r.Context(), userID)
	if err != nil {
		writeInternalError(w, r, h.logger, err, "failed to list adoption requests")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[[]types.AdoptionRequest]{Data: items})
}

func (h *AdoptionHandler) AdoptedPets(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	pets, err := h.adoptionService.AdoptedPets(r.Context(), userID)
	if err != nil {
		writeInternalError(w, r, h.logger, err, "failed to list adopted pets")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[[]types.Pet]{Data: pets})
}

func (h *AdoptionHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.adoptionService.ListAll(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "", "failed to list adoption requests")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[[]types.AdoptionRequest]{Data: items})
}

func (h *AdoptionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.adoptionService.Approve, "failed to approve adoption request")
}

func (h *AdoptionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.adoptionService.Reject, "failed to reject adoption request")
}

func (h *AdoptionHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id int) (types.AdoptionRequest, error),
	fallback string,
) {
	id, err := parseID(r, "adoptionID", "adoption")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := apply(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "adoption request not found", fallback)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
