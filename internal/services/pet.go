package services

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/adoptly/apiserver/internal/store"
	"github.com/adoptly/apiserver/types"
)

// PetRepository defines persistence operations for pets.
type PetRepository interface {
	List(ctx context.Context, filter store.PetFilter, offset, limit int) ([]types.Pet, int, error)
	Get(ctx context.Context, id int) (types.Pet, error)
	Create(ctx context.Context, pet types.Pet) (types.Pet, error)
	Update(ctx context.Context, pet types.Pet) (types.Pet, error)
	SetImageKey(ctx context.Context, id int, key string) (types.Pet, string, error)
	Delete(ctx context.Context, id int) (string, error)
}

// PetInput carries the editable attributes of a pet. An empty status keeps
// the current one on update and means available on create.
type PetInput struct {
	Name        string          `json:"name" validate:"notblank,max=100"`
	Species     string          `json:"species" validate:"notblank,max=50"`
	Breed       string          `json:"breed" validate:"max=100"`
	Age         int             `json:"age" validate:"gte=0,lte=100"`
	Description string          `json:"description" validate:"max=5000"`
	Status      types.PetStatus `json:"status"`
}

func (in PetInput) normalize() (PetInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Species = strings.TrimSpace(in.Species)
	in.Breed = strings.TrimSpace(in.Breed)
	in.Description = strings.TrimSpace(in.Description)
	if in.Status != "" {
		status, err := types.ParsePetStatus(string(in.Status))
		if err != nil {
			return PetInput{}, NewValidationError("%s", err.Error())
		}
		in.Status = status
	}
	if err := Validate(in); err != nil {
		return PetInput{}, err
	}
	return in, nil
}

// PetService encapsulates catalog use-cases.
type PetService struct {
	repo   PetRepository
	images ImageStore
	logger *slog.Logger
}

func NewPetService(repo PetRepository, images ImageStore, logger *slog.Logger) *PetService {
	return &PetService{repo: repo, images: images, logger: logger}
}

func (s *PetService) List(ctx context.Context, filter store.PetFilter, offset, limit int) ([]types.Pet, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *PetService) Get(ctx context.Context, id int) (types.Pet, error) {
	return s.repo.Get(ctx, id)
}

func (s *PetService) Create(ctx context.Context, in PetInput) (types.Pet, error) {
	in, err := in.normalize()
	if err != nil {
		return types.Pet{}, err
	}
	if in.Status == "" {
		in.Status = types.PetAvailable
	}
	return s.repo.Create(ctx, types.Pet{
		Name:        in.Name,
		Species:     in.Species,
		Breed:       in.Breed,
		Age:         in.Age,
		Description: in.Description,
		Status:      in.Status,
	})
}

// Update replaces the editable attributes. The status is only written when
// one was supplied.
func (s *PetService) Update(ctx context.Context, id int, in PetInput) (types.Pet, error) {
	in, err := in.normalize()
	if err != nil {
		return types.Pet{}, err
	}
	return s.repo.Update(ctx, types.Pet{
		ID:          id,
		Name:        in.Name,
		Species:     in.Species,
		Breed:       in.Breed,
		Age:         in.Age,
		Description: in.Description,
		Status:      in.Status,
	})
}

// Delete removes the pet together with its adoption requests and favorites,
// then removes its image.
func (s *PetService) Delete(ctx context.Context, id int) error {
	imageKey, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	discardImage(ctx, s.images, s.logger, imageKey)
	return nil
}

// SetImage stores img as the pet's photo, replacing any previous one.
func (s *PetService) SetImage(ctx context.Context, id int, img Image) (types.Pet, error) {
	pet, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Pet{}, err
	}

	key, err := storeImage(ctx, s.images, "pets", img)
	if err != nil {
		return types.Pet{}, err
	}

	updated, previous, err := s.repo.SetImageKey(ctx, pet.ID, key)
	if err != nil {
		discardImage(ctx, s.images, s.logger, key)
		return types.Pet{}, err
	}
	discardImage(ctx, s.images, s.logger, previous)
	return updated, nil
}

// OpenImage streams the pet's photo. The caller closes the reader.
func (s *PetService) OpenImage(ctx context.Context, id int) (io.ReadCloser, string, error) {
	pet, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	body, err := openImage(ctx, s.images, pet.ImageKey)
	if err != nil {
		return nil, "", err
	}
	return body, ImageContentType(pet.ImageKey), nil
}
