package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adoptly/apiserver/internal/services"
	"github.com/adoptly/apiserver/internal/store"
	"github.com/adoptly/apiserver/types"
)

// PetHandler provides HTTP handlers for the pet catalog.
type PetHandler struct {
	petService *services.PetService
	logger     *slog.Logger
}

// NewPetHandler constructs a handler with the provided service.
func NewPetHandler(petService *services.PetService, logger *slog.Logger) *PetHandler {
	return &PetHandler{petService: petService, logger: logger}
}

// PetRouter registers pet routes on the given router. Reads are public;
// writes need an admin.
func PetRouter(r chi.Router, petService *services.PetService, auth *AuthHandler, logger *slog.Logger) {
	handler := NewPetHandler(petService, logger)

	r.Get("/", handler.ListPets)
	r.Get("/{petID}", handler.GetPet)
	r.Get("/{petID}/image", handler.GetImage)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth, auth.RequireRole(types.RoleAdmin))
		r.Post("/", handler.CreatePet)
		r.Put("/{petID}", handler.UpdatePet)
		r.Delete("/{petID}", handler.DeletePet)
		r.Put("/{petID}/image", handler.UploadImage)
	})
}

type PetListResponse = PageResponse[types.Pet]

func (h *PetHandler) ListPets(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.PetFilter{Species: strings.TrimSpace(r.URL.Query().Get("species"))}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := types.ParsePetStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = status
	}

	items, total, err := h.petService.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeInternalError(w, r, h.logger, err, "failed to list pets")
		return
	}

	writeJSON(w, http.StatusOK, PetListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *PetHandler) GetPet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "petID", "pet")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pet, err := h.petService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "pet not found", "failed to fetch pet")
		return
	}
	writeJSON(w, http.StatusOK, pet)
}

func (h *PetHandler) CreatePet(w http.ResponseWriter, r *http.Request) {
	var in services.PetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pet, err := h.petService.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "pet not found", "failed to create pet")
		return
	}
	writeJSON(w, http.StatusCreated, pet)
}

func (h *PetHandler) UpdatePet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "petID", "pet")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in services.PetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pet, err := h.petService.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "pet not found", "failed to update pet")
		return
	}
	writeJSON(w, http.StatusOK, pet)
}

func (h *PetHandler) DeletePet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "petID", "pet")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.petService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, err, "pet not found", "failed to delete pet")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PetHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "petID", "pet")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := readImageUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	pet, err := h.petService.SetImage(r.Context(), id, img)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "pet not found", "failed to store image")
		return
	}
	writeJSON(w, http.StatusOK, pet)
}

func (h *PetHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "petID", "pet")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body, contentType, err := h.petService.OpenImage(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "pet not found", "failed to load image")
		return
	}
	streamImage(w, body, contentType)
}
