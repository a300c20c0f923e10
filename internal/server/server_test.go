package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/adoptly/apiserver/config"
	"github.com/adoptly/apiserver/internal/events"
	"github.com/adoptly/apiserver/internal/logging"
	"github.com/adoptly/apiserver/internal/services"
	"github.com/adoptly/apiserver/internal/store/memory"
	"github.com/adoptly/apiserver/types"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func memoryServices(db *memory.DB) Services {
	logger := logging.Discard()
	return Services{
		Users:     services.NewUserService(memory.NewUserRepository(db), nil, logger),
		Pets:      services.NewPetService(memory.NewPetRepository(db), nil, logger),
		Adoptions: services.NewAdoptionService(memory.NewAdoptionRepository(db), events.Noop(), logger),
		Favorites: services.NewFavoriteService(memory.NewFavoriteRepository(db)),
		Messages:  services.NewMessageService(memory.NewMessageRepository(db), events.Noop(), logger),
		Stats:     services.NewStatsService(db),
	}
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:   "test-secret",
		CORSOrigins: []string{"https://adoptly.example"},
	}
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	db := memory.New()

	router := NewRouter(testConfig(), memoryServices(db), logging.Discard(), stubPinger{})
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	router = NewRouter(testConfig(), memoryServices(db), logging.Discard(), stubPinger{err: errors.New("down")})
	rec = serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRoutesAreMounted(t *testing.T) {
	db := memory.New()
	db.SeedPet(types.Pet{Name: "Rex", Species: "dog"})
	router := NewRouter(testConfig(), memoryServices(db), logging.Discard(), nil)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/pets", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Rex"`)

	for _, path := range []string{"/adoptions", "/favorites", "/message/notifications", "/admin/stats", "/users"} {
		rec := serve(router, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "adoptly_http_requests_total")
}

func TestImageUploadWithoutStorageIsUnavailable(t *testing.T) {
	db := memory.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-password"), bcrypt.MinCost)
	require.NoError(t, err)
	db.SeedUser(types.User{
		Username:     "root",
		Email:        "root@example.com",
		Name:         "Root",
		Role:         types.RoleAdmin,
		PasswordHash: string(hash),
	})
	pet := db.SeedPet(types.Pet{Name: "Rex", Species: "dog"})
	router := NewRouter(testConfig(), memoryServices(db), logging.Discard(), nil)

	rec := serve(router, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"root","password":"admin-password"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "rex.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n0000"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/pets/%d/image", pet.ID), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = serve(router, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(testConfig(), memoryServices(memory.New()), logging.Discard(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/adoptions", nil)
	req.Header.Set("Origin", "https://adoptly.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := serve(router, req)

	assert.Equal(t, "https://adoptly.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/adoptions", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = serve(router, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewRequiresJWTSecret(t *testing.T) {
	_, err := New(context.Background(), config.Config{}, logging.Discard())
	require.ErrorContains(t, err, "JWT_SECRET")
}
