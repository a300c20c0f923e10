package memory

import (
	"context"
	"sort"

	"github.com/adoptly/apiserver/internal/store"
	"github.com/adoptly/apiserver/types"
)

type AdoptionRepository struct{ db *DB }

func NewAdoptionRepository(db *DB) *AdoptionRepository {
	return &AdoptionRepository{db: db}
}

func (r *AdoptionRepository) Create(_ context.Context, req types.AdoptionRequest) (types.AdoptionRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.pets[req.PetID]; !ok {
		return types.AdoptionRequest{}, store.ErrNotFound
	}
	if _, ok := r.db.users[req.UserID]; !ok {
		return types.AdoptionRequest{}, store.ErrNotFound
	}
	now := r.db.tick()
	req.Adopter.ID = r.db.id()
	req.ID = r.db.id()
	req.Status = types.AdoptionPending
	req.Pet = nil
	req.CreatedAt, req.UpdatedAt = now, now
	r.db.adoptions[req.ID] = req
	return req, nil
}

func (r *AdoptionRepository) withPet(req types.AdoptionRequest) types.AdoptionRequest {
	pet := r.db.pets[req.PetID]
	req.Pet = &pet
	return req
}

func (r *AdoptionRepository) filter(keep func(types.AdoptionRequest) bool) []types.AdoptionRequest {
	out := make([]types.AdoptionRequest, 0)
	for _, req := range r.db.adoptions {
		if keep(req) {
			out = append(out, r.withPet(req))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *AdoptionRepository) ListByUser(_ context.Context, userID int) ([]types.AdoptionRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.filter(func(req types.AdoptionRequest) bool { return req.UserID == userID }), nil
}

func (r *AdoptionRepository) List(_ context.Context, status types.AdoptionStatus) ([]types.AdoptionRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.filter(func(req types.AdoptionRequest) bool {
		return status == "" || req.Status == status
	}), nil
}

func (r *AdoptionRepository) ListAdoptedPets(_ context.Context, userID int) ([]types.Pet, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	approved := r.filter(func(req types.AdoptionRequest) bool {
		return req.UserID == userID && req.Status == types.AdoptionApproved
	})
	// Most recently approved first, as in postgres.
	sort.Slice(approved, func(i, j int) bool {
		if approved[i].UpdatedAt.Equal(approved[j].UpdatedAt) {
			return approved[i].ID > approved[j].ID
		}
		return approved[i].UpdatedAt.After(approved[j].UpdatedAt)
	})
	pets := make([]types.Pet, 0, len(approved))
	for _, req := range approved {
		pets = append(pets, *req.Pet)
	}
	return pets, nil
}

// Transition applies the same rules as the postgres repository under the
// DB mutex, which stands in for the row locks.
func (r *AdoptionRepository) Transition(_ context.Context, id int, next types.AdoptionStatus) (types.AdoptionRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req, ok := r.db.adoptions[id]
	if !ok {
		return types.AdoptionRequest{}, store.ErrNotFound
	}
	if !req.Status.CanTransitionTo(next) {
		return types.AdoptionRequest{}, store.ErrInvalidTransition
	}

	now := r.db.tick()
	if next == types.AdoptionApproved {
		pet, ok := r.db.pets[req.PetID]
		if !ok {
			return types.AdoptionRequest{}, store.ErrNotFound
		}
		if pet.Status == types.PetAdopted {
			return types.AdoptionRequest{}, store.ErrPetUnavailable
		}
		pet.Status = types.PetAdopted
		pet.UpdatedAt = now
		r.db.pets[pet.ID] = pet
	}

	req.Status = next
	req.UpdatedAt = now
	r.db.adoptions[id] = req
	return req, nil
}
