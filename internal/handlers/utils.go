package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adoptly/apiserver/internal/services"
	"github.com/adoptly/apiserver/internal/store"
	"github.com/adoptly/apiserver/types"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
	maxBodyBytes = 1 << 20
)

type contextKey string

const (
	contextSubjectKey contextKey = "sub"
	contextRoleKey    contextKey = "role"
)

func userIDFromContext(ctx context.Context) (int, error) {
	value := ctx.Value(contextSubjectKey)
	switch subject := value.(type) {
	case int:
		if subject < 1 {
			return 0, errors.New("invalid subject")
		}
		return subject, nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(subject))
		if err != nil || parsed < 1 {
			return 0, errors.New("invalid subject")
		}
		return parsed, nil
	default:
		return 0, errors.New("missing subject")
	}
}

func roleFromContext(ctx context.Context) types.Role {
	role, _ := ctx.Value(contextRoleKey).(types.Role)
	return role
}

// ErrorResponse is a simple error payload. Fields carries per-field
// validation failures keyed by their JSON name.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// DataResponse wraps list payloads that are not paginated.
type DataResponse[T any] struct {
	Data T `json:"data"`
}

// PageResponse is a paginated list payload.
type PageResponse[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return errors.New("invalid request")
	}
	return nil
}

// writeServiceError maps service and store errors onto HTTP statuses.
// notFound is the message for missing resources; fallback is logged and used
// for anything unexpected.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFound, fallback string) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Error(), Fields: ve.Fields})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, store.ErrPetUnavailable):
		writeError(w, http.StatusConflict, "pet is no longer available")
	case errors.Is(err, store.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "adoption request is no longer pending")
	case errors.Is(err, services.ErrImageNotFound):
		writeError(w, http.StatusNotFound, "image not found")
	case errors.Is(err, services.ErrImagesDisabled):
		writeError(w, http.StatusServiceUnavailable, "image storage is not configured")
	default:
		writeInternalError(w, r, logger, err, fallback)
	}
}

// writeInternalError logs err and answers 500 with msg. The error itself is
// never sent to the client.
func writeInternalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, msg string) {
	logger.ErrorContext(r.Context(), msg, "error", err, "method", r.Method, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, msg)
}

func parsePagination(r *http.Request) (page, limit, offset int, err error) {
	page = defaultPage
	limit = defaultLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, 0, errors.New("invalid page")
		}
	}

	rawLimit := strings.TrimSpace(r.URL.Query().Get("limit"))
	if rawLimit == "" {
		rawLimit = strings.TrimSpace(r.URL.Query().Get("per_page"))
	}
	if rawLimit != "" {
		limit, err = strconv.Atoi(rawLimit)
		if err != nil || limit < 1 {
			return 0, 0, 0, errors.New("invalid limit")
		}
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	offset = (page - 1) * limit
	return page, limit, offset, nil
}

// parseID reads a positive integer route parameter.
func parseID(r *http.Request, param, label string) (int, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s id", label)
	}
	return id, nil
}
