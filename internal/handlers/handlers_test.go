package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adoptly/apiserver/internal/events"
	"github.com/adoptly/apiserver/internal/logging"
	"github.com/adoptly/apiserver/internal/services"
	"github.com/adoptly/apiserver/internal/storage"
	"github.com/adoptly/apiserver/internal/store/memory"
	"github.com/adoptly/apiserver/types"
)

type testAPI struct {
	db      *memory.DB
	auth    *AuthHandler
	users   *services.UserService
	limiter *RateLimiter
	router  *chi.Mux
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db := memory.New()
	images := storage.NewMemoryStorage("test")
	logger := logging.Discard()
	publisher := events.Noop()

	users := services.NewUserService(memory.NewUserRepository(db), images, logger)
	pets := services.NewPetService(memory.NewPetRepository(db), images, logger)
	adoptions := services.NewAdoptionService(memory.NewAdoptionRepository(db), publisher, logger)
	favorites := services.NewFavoriteService(memory.NewFavoriteRepository(db))
	messages := services.NewMessageService(memory.NewMessageRepository(db), publisher, logger)
	stats := services.NewStatsService(db)

	auth := NewAuthHandler(users, "test-secret", time.Hour, logger)
	limiter := NewRateLimiter(1, 2)
	frozen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return frozen }

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) { AuthRouter(r, auth) })
	r.Route("/users", func(r chi.Router) { UserRouter(r, users, auth, logger) })
	r.Route("/pets", func(r chi.Router) { PetRouter(r, pets, auth, logger) })
	r.Route("/adoptions", func(r chi.Router) { AdoptionRouter(r, adoptions, auth, logger) })
	r.Route("/favorites", func(r chi.Router) { FavoriteRouter(r, favorites, auth, logger) })
	r.Route("/message", func(r chi.Router) { MessageRouter(r, messages, auth, limiter, logger) })
	r.Route("/admin", func(r chi.Router) { AdminRouter(r, stats, auth, logger) })

	return &testAPI{db: db, auth: auth, users: users, limiter: limiter, router: r}
}

func (a *testAPI) seedUser(t *testing.T, username string, role types.Role) (types.User, string) {
	t.Helper()
	user := a.db.SeedUser(types.User{
		Username: username,
		Email:    username + "@example.com",
		Name:     username,
		Role:     role,
	})
	token, err := a.auth.issueToken(user)
	require.NoError(t, err)
	return user, token
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRegisterLoginMe(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "jane", "email": "jane@example.com", "name": "Jane", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decode[AuthResponse](t, rec)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, types.RoleUser, registered.User.Role)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = api.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "jane", "email": "other@example.com", "name": "Jane", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "sam", "email": "sam@example.com", "name": "Sam", "password": "short",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "min=8", decode[ErrorResponse](t, rec).Fields["password"])

	rec = api.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "jane", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: " jane ", Password: "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[AuthResponse](t, rec).Token

	rec = api.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jane", decode[types.User](t, rec).Username)

	rec = api.do(t, http.MethodGet, "/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	api := newTestAPI(t)
	_, userToken := api.seedUser(t, "jane", types.RoleUser)
	admin, adminToken := api.seedUser(t, "root", types.RoleAdmin)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/message/notifications", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/message/notifications", userToken, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/message/notifications", adminToken, nil).Code)

	_, err := api.users.SetRole(t.Context(), admin.ID, "user")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/message/notifications", adminToken, nil).Code)
}

func TestAdoptionLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	_, userToken := api.seedUser(t, "jane", types.RoleUser)
	_, adminToken := api.seedUser(t, "root", types.RoleAdmin)
	pet := api.db.SeedPet(types.Pet{Name: "Rex", Species: "dog"})

	request := services.AdoptionInput{PetID: pet.ID, FullName: "Jane Doe", Address: "1 Main St", Phone: "555-0100"}

	rec := api.do(t, http.MethodPost, "/adoptions", userToken, request)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[types.AdoptionRequest](t, rec)
	assert.Equal(t, types.AdoptionPending, first.Status)

	rec = api.do(t, http.MethodPost, "/adoptions", userToken, services.AdoptionInput{PetID: pet.ID, FullName: "Jane Doe", Address: "1 Main St"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "required", decode[ErrorResponse](t, rec).Fields["phone"])

	rec = api.do(t, http.MethodPost, "/adoptions", userToken, services.AdoptionInput{PetID: 999, FullName: "Jane Doe", Address: "1 Main St", Phone: "555-0100"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/adoptions", userToken, request)
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[types.AdoptionRequest](t, rec)

	rec = api.do(t, http.MethodGet, "/adoptions", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[DataResponse[[]types.AdoptionRequest]](t, rec)
	require.Len(t, mine.Data, 2)
	assert.Equal(t, second.ID, mine.Data[0].ID)
	require.NotNil(t, mine.Data[0].Pet)
	assert.Equal(t, "Rex", mine.Data[0].Pet.Name)

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPatch, "/adoptions/1/approve", userToken, nil).Code)

	rec = api.do(t, http.MethodPatch, pathf("/adoptions/%d/approve", first.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, types.AdoptionApproved, decode[types.AdoptionRequest](t, rec).Status)
	stored, _ := api.db.Pet(pet.ID)
	assert.Equal(t, types.PetAdopted, stored.Status)

	rec = api.do(t, http.MethodPatch, pathf("/adoptions/%d/approve", second.ID), adminToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "pet is no longer available", decode[ErrorResponse](t, rec).Error)

	assert.Equal(t, http.StatusConflict, api.do(t, http.MethodPatch, pathf("/adoptions/%d/reject", first.ID), adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodPatch, "/adoptions/4242/approve", adminToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPatch, "/adoptions/abc/approve", adminToken, nil).Code)

	rec = api.do(t, http.MethodGet, "/adoptions/all?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[DataResponse[[]types.AdoptionRequest]](t, rec)
	require.Len(t, pending.Data, 1)
	assert.Equal(t, second.ID, pending.Data[0].ID)

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/adoptions/all?status=archived", adminToken, nil).Code)

	rec = api.do(t, http.MethodGet, "/adoptions/adopted", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	adopted := decode[DataResponse[[]types.Pet]](t, rec)
	require.Len(t, adopted.Data, 1)
	assert.Equal(t, pet.ID, adopted.Data[0].ID)
}

func TestFavoritesOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.seedUser(t, "jane", types.RoleUser)
	pet := api.db.SeedPet(types.Pet{Name: "Rex", Species: "dog"})
	path := pathf("/favorites/%d", pet.ID)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodPost, path, "", nil).Code)

	rec := api.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, FavoriteResponse{PetID: pet.ID, Favorited: true}, decode[FavoriteResponse](t, rec))
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPost, path, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodPost, "/favorites/999", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPost, "/favorites/zero", token, nil).Code)

	rec = api.do(t, http.MethodGet, "/favorites", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	favorites := decode[DataResponse[[]types.Pet]](t, rec)
	require.Len(t, favorites.Data, 1)
	assert.Equal(t, "Rex", favorites.Data[0].Name)

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, path, token, nil).Code)
	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, path, token, nil).Code)
}

func TestContactInboxOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.seedUser(t, "root", types.RoleAdmin)

	rec := api.do(t, http.MethodPost, "/message/send", "", services.MessageInput{Name: "Ana", Email: "nope", Message: "hi"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email", decode[ErrorResponse](t, rec).Fields["email"])

	rec = api.do(t, http.MethodPost, "/message/send", "", services.MessageInput{Name: "Ana", Email: "ana@example.com", Message: "Is Rex still available?"})
	require.Equal(t, http.StatusCreated, rec.Code)
	msg := decode[types.Message](t, rec)

	rec = api.do(t, http.MethodGet, "/message/notifications", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inbox := decode[DataResponse[[]types.Message]](t, rec)
	require.Len(t, inbox.Data, 1)
	assert.Equal(t, "Is Rex still available?", inbox.Data[0].Body)

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, pathf("/message/%d", msg.ID), adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, pathf("/message/%d", msg.ID), adminToken, nil).Code)
}

func TestSendMessageIsRateLimited(t *testing.T) {
	api := newTestAPI(t)
	body := services.MessageInput{Name: "Ana", Email: "ana@example.com", Message: "hello"}

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/message/send", "", body).Code)
	}
	rec := api.do(t, http.MethodPost, "/message/send", "", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	_, _, messages := api.db.Counts()
	assert.Equal(t, 2, messages)
}

func TestListPetsFiltersAndPaginates(t *testing.T) {
	api := newTestAPI(t)
	api.db.SeedPet(types.Pet{Name: "Rex", Species: "dog"})
	api.db.SeedPet(types.Pet{Name: "Tom", Species: "cat", Status: types.PetAdopted})
	api.db.SeedPet(types.Pet{Name: "Fido", Species: "Dog"})

	rec := api.do(t, http.MethodGet, "/pets?species=dog&limit=1&page=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[PetListResponse](t, rec)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Fido", page.Items[0].Name)

	rec = api.do(t, http.MethodGet, "/pets?status=ADOPTED", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[PetListResponse](t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Tom", page.Items[0].Name)

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/pets?status=lost", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/pets?page=0", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/pets/999", "", nil).Code)
}

func TestPetAdminCRUD(t *testing.T) {
	api := newTestAPI(t)
	_, userToken := api.seedUser(t, "jane", types.RoleUser)
	_, adminToken := api.seedUser(t, "root", types.RoleAdmin)

	input := map[string]any{"name": "Rex", "species": "dog", "age": 3, "status": "Pending"}
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPost, "/pets", userToken, input).Code)

	rec := api.do(t, http.MethodPost, "/pets", adminToken, input)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pet := decode[types.Pet](t, rec)
	assert.Equal(t, types.PetPending, pet.Status)

	rec = api.do(t, http.MethodPut, pathf("/pets/%d", pet.ID), adminToken, map[string]any{"name": "Rex", "species": "dog", "age": -2})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "gte=0", decode[ErrorResponse](t, rec).Fields["age"])

	rec = api.do(t, http.MethodPut, pathf("/pets/%d", pet.ID), adminToken, map[string]any{"name": "Rex", "species": "dog", "age": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decode[types.Pet](t, rec).Age)

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, pathf("/pets/%d", pet.ID), adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, pathf("/pets/%d", pet.ID), adminToken, nil).Code)
}

func multipartImage(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(formFieldImage, "photo.bin")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestPetImageUploadAndStream(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.seedUser(t, "root", types.RoleAdmin)
	pet := api.db.SeedPet(types.Pet{Name: "Rex", Species: "dog"})
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x01}, 64)...)

	upload := func(data []byte) *httptest.ResponseRecorder {
		body, contentType := multipartImage(t, data)
		req := httptest.NewRequest(http.MethodPut, pathf("/pets/%d/image", pet.ID), body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, pathf("/pets/%d/image", pet.ID), "", nil).Code)

	rec := upload(png)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasSuffix(decode[types.Pet](t, rec).ImageKey, ".png"))

	rec = api.do(t, http.MethodGet, pathf("/pets/%d/image", pet.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.Bytes())

	rec = upload([]byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserAdministration(t *testing.T) {
	api := newTestAPI(t)
	jane, userToken := api.seedUser(t, "jane", types.RoleUser)
	_, adminToken := api.seedUser(t, "root", types.RoleAdmin)

	rec := api.do(t, http.MethodPatch, "/users/me", userToken, map[string]string{"phone": "555-0100"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "555-0100", decode[types.User](t, rec).Phone)

	rec = api.do(t, http.MethodGet, "/users?limit=1", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[UserListResponse](t, rec)
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Items, 1)

	rec = api.do(t, http.MethodPatch, pathf("/users/%d/role", jane.ID), adminToken, RoleRequest{Role: "superuser"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPatch, pathf("/users/%d/role", jane.ID), adminToken, RoleRequest{Role: "Admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.RoleAdmin, decode[types.User](t, rec).Role)

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, pathf("/users/%d", jane.ID), adminToken, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/auth/me", userToken, nil).Code)
}

func TestAdminStats(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.seedUser(t, "root", types.RoleAdmin)
	api.db.SeedPet(types.Pet{Name: "Rex", Species: "dog"})
	api.db.SeedPet(types.Pet{Name: "Tom", Species: "cat", Status: types.PetAdopted})

	rec := api.do(t, http.MethodGet, "/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[types.Stats](t, rec)
	assert.Equal(t, 1, stats.Users)
	assert.Equal(t, 1, stats.Pets[types.PetAvailable])
	assert.Equal(t, 1, stats.Pets[types.PetAdopted])
	assert.Equal(t, 0, stats.Adoptions[types.AdoptionPending])
}
