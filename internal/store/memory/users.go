package memory

import (
	"context"
	"strings"

	"github.com/adoptly/apiserver/internal/store"
	"github.com/adoptly/apiserver/types"
)

type UserRepository struct{ db *DB }

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(_ context.Context, id int) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, user := range r.db.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) List(_ context.Context, offset, limit int) ([]types.User, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	users := make([]types.User, 0, len(r.db.users))
	for _, user := range r.db.users {
		users = append(users, user)
	}
	sortByID(users, func(u types.User) int { return u.ID })
	return page(users, offset, limit), len(users), nil
}

func (r *UserRepository) conflicts(user types.User) bool {
	for _, existing := range r.db.users {
		if existing.ID == user.ID {
			continue
		}
		if existing.Username == user.Username || strings.EqualFold(existing.Email, user.Email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.conflicts(user) {
		return types.User{}, store.ErrConflict
	}
	now := r.db.tick()
	user.ID = r.db.id()
	user.CreatedAt, user.UpdatedAt = now, now
	r.db.users[user.ID] = user
	return user, nil
}

func (r *UserRepository) Update(_ context.Context, user types.User) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	if r.conflicts(user) {
		return types.User{}, store.ErrConflict
	}
	user.Role = existing.Role
	user.ImageKey = existing.ImageKey
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = r.db.tick()
	r.db.users[user.ID] = user
	return user, nil
}

func (r *UserRepository) SetRole(_ context.Context, id int, role types.Role) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	user.Role = role
	user.UpdatedAt = r.db.tick()
	r.db.users[id] = user
	return user, nil
}

func (r *UserRepository) SetImageKey(_ context.Context, id int, key string) (types.User, string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[id]
	if !ok {
		return types.User{}, "", store.ErrNotFound
	}
	previous := user.ImageKey
	user.ImageKey = key
	user.UpdatedAt = r.db.tick()
	r.db.users[id] = user
	return user, previous, nil
}

// Delete removes the user with their adoption requests and favorites.
func (r *UserRepository) Delete(_ context.Context, id int) (string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[id]
	if !ok {
		return "", store.ErrNotFound
	}
	delete(r.db.users, id)
	for key := range r.db.favorites {
		if key.userID == id {
			delete(r.db.favorites, key)
		}
	}
	for adoptionID, req := range r.db.adoptions {
		if req.UserID == id {
			delete(r.db.adoptions, adoptionID)
		}
	}
	return user.ImageKey, nil
}
