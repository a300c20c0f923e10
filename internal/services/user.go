package services

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/adoptly/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	List(ctx context.Context, offset, limit int) ([]types.User, int, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	SetRole(ctx context.Context, id int, role types.Role) (types.User, error)
	SetImageKey(ctx context.Context, id int, key string) (types.User, string, error)
	Delete(ctx context.Context, id int) (string, error)
}

// ProfileUpdate is a partial self-service edit. Nil fields are untouched.
type ProfileUpdate struct {
	Name     *string `json:"name" validate:"omitempty,notblank,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Location *string `json:"location" validate:"omitempty,max=100"`
	Address  *string `json:"address" validate:"omitempty,max=500"`
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo   UserRepository
	images ImageStore
	logger *slog.Logger
}

func NewUserService(repo UserRepository, images ImageStore, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, images: images, logger: logger}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, strings.TrimSpace(username))
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

// Create stores a new account. The role defaults to user.
func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	if user.Role == "" {
		user.Role = types.RoleUser
	}
	if !user.Role.Valid() {
		return types.User{}, NewValidationError("invalid role %q", user.Role)
	}
	return s.repo.Create(ctx, user)
}

func (s *UserService) UpdateProfile(ctx context.Context, id int, update ProfileUpdate) (types.User, error) {
	if err := Validate(update); err != nil {
		return types.User{}, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if update.Name != nil {
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.Phone != nil {
		user.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Location != nil {
		user.Location = strings.TrimSpace(*update.Location)
	}
	if update.Address != nil {
		user.Address = strings.TrimSpace(*update.Address)
	}
	return s.repo.Update(ctx, user)
}

// SetRole changes a user's role. Raw role names are parsed into the closed
// role set, so "Admin" and "admin" are the same role.
func (s *UserService) SetRole(ctx context.Context, id int, rawRole string) (types.User, error) {
	role, err := types.ParseRole(rawRole)
	if err != nil {
		return types.User{}, NewValidationError("%s", err.Error())
	}
	return s.repo.SetRole(ctx, id, role)
}

// Delete removes the account. Adoption requests and favorites go with it;
// the profile image is removed afterwards.
func (s *UserService) Delete(ctx context.Context, id int) error {
	imageKey, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	discardImage(ctx, s.images, s.logger, imageKey)
	return nil
}

// SetImage stores img as the user's profile image, replacing any previous one.
func (s *UserService) SetImage(ctx context.Context, id int, img Image) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	key, err := storeImage(ctx, s.images, "users", img)
	if err != nil {
		return types.User{}, err
	}

	updated, previous, err := s.repo.SetImageKey(ctx, user.ID, key)
	if err != nil {
		discardImage(ctx, s.images, s.logger, key)
		return types.User{}, err
	}
	discardImage(ctx, s.images, s.logger, previous)
	return updated, nil
}

// OpenImage streams the user's profile image. The caller closes the reader.
func (s *UserService) OpenImage(ctx context.Context, id int) (io.ReadCloser, string, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	body, err := openImage(ctx, s.images, user.ImageKey)
	if err != nil {
		return nil, "", err
	}
	return body, ImageContentType(user.ImageKey), nil
}
