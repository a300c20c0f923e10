package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adoptly/apiserver/internal/services"
	"github.com/adoptly/apiserver/types"
)

// UserHandler serves profile and account administration endpoints.
type UserHandler struct {
	userService *services.UserService
	logger      *slog.Logger
}

func NewUserHandler(userService *services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService, auth *AuthHandler, logger *slog.Logger) {
	handler := NewUserHandler(userService, logger)

	r.Get("/{userID}/image", handler.GetImage)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Patch("/me", handler.UpdateMe)
		r.Put("/me/image", handler.UploadMyImage)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth, auth.RequireRole(types.RoleAdmin))
		r.Get("/", handler.ListUsers)
		r.Patch("/{userID}/role", handler.SetRole)
		r.Delete("/{userID}", handler.DeleteUser)
	})
}

type UserListResponse = PageResponse[types.User]

type RoleRequest struct {
	Role string `json:"role"`
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var update services.ProfileUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, update)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "user not found", "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UploadMyImage(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	img, err := readImageUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	user, err := h.userService.SetImage(r.Context(), userID, img)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "user not found", "failed to store image")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID", "user")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body, contentType, err := h.userService.OpenImage(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "user not found", "failed to load image")
		return
	}
	streamImage(w, body, contentType)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.userService.List(r.Context(), offset, limit)
	if err != nil {
		writeInternalError(w, r, h.logger, err, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID", "user")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req RoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.SetRole(r.Context(), id, req.Role)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "user not found", "failed to update role")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID", "user")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, err, "user not found", "failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
