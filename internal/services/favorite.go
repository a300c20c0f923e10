package services

import (
	"context"

	"github.com/adoptly/apiserver/types"
)

// FavoriteRepository defines persistence operations for favorites.
type FavoriteRepository interface {
	Add(ctx context.Context, userID, petID int) (bool, error)
	Remove(ctx context.Context, userID, petID int) error
	ListPets(ctx context.Context, userID int) ([]types.Pet, error)
}

// FavoriteService manages the user × pet favorites set.
type FavoriteService struct {
	repo FavoriteRepository
}

func NewFavoriteService(repo FavoriteRepository) *FavoriteService {
	return &FavoriteService{repo: repo}
}

// Add favorites the pet. Adding an existing favorite succeeds and reports
// created=false.
func (s *FavoriteService) Add(ctx context.Context, userID, petID int) (bool, error) {
	if petID < 1 {
		return false, NewValidationError("invalid pet id")
	}
	return s.repo.Add(ctx, userID, petID)
}

// Remove unfavorites the pet. Removing a missing favorite is not an error.
func (s *FavoriteService) Remove(ctx context.Context, userID, petID int) error {
	if petID < 1 {
		return NewValidationError("invalid pet id")
	}
	return s.repo.Remove(ctx, userID, petID)
}

func (s *FavoriteService) List(ctx context.Context, userID int) ([]types.Pet, error) {
	return s.repo.ListPets(ctx, userID)
}
