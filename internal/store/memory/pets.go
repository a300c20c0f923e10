package memory

import (
	"context"
	"strings"

	"github.com/adoptly/apiserver/internal/store"
	"github.com/adoptly/apiserver/types"
)

type PetRepository struct{ db *DB }

func NewPetRepository(db *DB) *PetRepository {
	return &PetRepository{db: db}
}

func (r *PetRepository) List(_ context.Context, filter store.PetFilter, offset, limit int) ([]types.Pet, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	species := strings.TrimSpace(filter.Species)
	pets := make([]types.Pet, 0)
	for _, pet := range r.db.pets {
		if filter.Status != "" && pet.Status != filter.Status {
			continue
		}
		if species != "" && !strings.EqualFold(pet.Species, species) {
			continue
		}
		pets = append(pets, pet)
	}
	sortByID(pets, func(p types.Pet) int { return p.ID })
	return page(pets, offset, limit), len(pets), nil
}

func (r *PetRepository) Get(_ context.Context, id int) (types.Pet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	pet, ok := r.db.pets[id]
	if !ok {
		return types.Pet{}, store.ErrNotFound
	}
	return pet, nil
}

func (r *PetRepository) Create(_ context.Context, pet types.Pet) (types.Pet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := r.db.tick()
	pet.ID = r.db.id()
	pet.CreatedAt, pet.UpdatedAt = now, now
	if pet.Status == "" {
		pet.Status = types.PetAvailable
	}
	r.db.pets[pet.ID] = pet
	return pet, nil
}

// Update mirrors the Postgres repository: an empty status keeps the stored
// one and the image key is left alone.
func (r *PetRepository) Update(_ context.Context, pet types.Pet) (types.Pet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.pets[pet.ID]
	if !ok {
		return types.Pet{}, store.ErrNotFound
	}
	existing.Name = pet.Name
	existing.Species = pet.Species
	existing.Breed = pet.Breed
	existing.Age = pet.Age
	existing.Description = pet.Description
	if pet.Status != "" {
		existing.Status = pet.Status
	}
	existing.UpdatedAt = r.db.tick()
	r.db.pets[pet.ID] = existing
	return existing, nil
}

func (r *PetRepository) SetImageKey(_ context.Context, id int, key string) (types.Pet, string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	pet, ok := r.db.pets[id]
	if !ok {
		return types.Pet{}, "", store.ErrNotFound
	}
	previous := pet.ImageKey
	pet.ImageKey = key
	pet.UpdatedAt = r.db.tick()
	r.db.pets[id] = pet
	return pet, previous, nil
}

// Delete removes the pet with its adoption requests and favorites.
func (r *PetRepository) Delete(_ context.Context, id int) (string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	pet, ok := r.db.pets[id]
	if !ok {
		return "", store.ErrNotFound
	}
	delete(r.db.pets, id)
	for key := range r.db.favorites {
		if key.petID == id {
			delete(r.db.favorites, key)
		}
	}
	for adoptionID, req := range r.db.adoptions {
		if req.PetID == id {
			delete(r.db.adoptions, adoptionID)
		}
	}
	return pet.ImageKey, nil
}
