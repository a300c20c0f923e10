package memory

import (
	"context"
	"sort"

	"github.com/adoptly/apiserver/internal/store"
	"github.com/adoptly/apiserver/types"
)

type FavoriteRepository struct{ db *DB }

func NewFavoriteRepository(db *DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) Add(_ context.Context, userID, petID int) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[userID]; !ok {
		return false, store.ErrNotFound
	}
	if _, ok := r.db.pets[petID]; !ok {
		return false, store.ErrNotFound
	}
	key := favoriteKey{userID: userID, petID: petID}
	if _, ok := r.db.favorites[key]; ok {
		return false, nil
	}
	r.db.favorites[key] = r.db.tick()
	return true, nil
}

func (r *FavoriteRepository) Remove(_ context.Context, userID, petID int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.favorites, favoriteKey{userID: userID, petID: petID})
	return nil
}

func (r *FavoriteRepository) ListPets(_ context.Context, userID int) ([]types.Pet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	type added struct {
		pet types.Pet
		at  int64
	}
	var rows []added
	for key, at := range r.db.favorites {
		if key.userID == userID {
			rows = append(rows, added{pet: r.db.pets[key.petID], at: at.UnixNano()})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].at > rows[j].at })
	pets := make([]types.Pet, 0, len(rows))
	for _, row := range rows {
		pets = append(pets, row.pet)
	}
	return pets, nil
}
