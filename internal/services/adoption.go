package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/adoptly/apiserver/internal/events"
	"github.com/adoptly/apiserver/internal/metrics"
	"github.com/adoptly/apiserver/internal/store"
	"github.com/adoptly/apiserver/types"
)

// AdoptionRepository defines persistence operations for adoption requests.
type AdoptionRepository interface {
	Create(ctx context.Context, req types.AdoptionRequest) (types.AdoptionRequest, error)
	ListByUser(ctx context.Context, userID int) ([]types.AdoptionRequest, error)
	List(ctx context.Context, status types.AdoptionStatus) ([]types.AdoptionRequest, error)
	ListAdoptedPets(ctx context.Context, userID int) ([]types.Pet, error)
	Transition(ctx context.Context, id int, next types.AdoptionStatus) (types.AdoptionRequest, error)
}

// AdoptionInput is what a user submits to request a pet.
type AdoptionInput struct {
	PetID    int    `json:"pet_id" validate:"required,gt=0"`
	FullName string `json:"full_name" validate:"notblank,max=200"`
	Address  string `json:"address" validate:"notblank,max=500"`
	Phone    string `json:"phone" validate:"notblank,max=50"`
	Reason   string `json:"reason" validate:"max=2000"`
}

// AdoptionService drives the adoption request lifecycle.
type AdoptionService struct {
	repo      AdoptionRepository
	publisher EventPublisher
	logger    *slog.Logger
}

func NewAdoptionService(repo AdoptionRepository, publisher EventPublisher, logger *slog.Logger) *AdoptionService {
	return &AdoptionService{repo: repo, publisher: publisher, logger: logger}
}

// Submit records a pending request by userID. The pet must exist; its
// availability is not checked here and its status is left alone.
func (s *AdoptionService) Submit(ctx context.Context, userID int, in AdoptionInput) (types.AdoptionRequest, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Address = strings.TrimSpace(in.Address)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Reason = strings.TrimSpace(in.Reason)
	if err := Validate(in); err != nil {
		return types.AdoptionRequest{}, err
	}

	created, err := s.repo.Create(ctx, types.AdoptionRequest{
		PetID:  in.PetID,
		UserID: userID,
		Adopter: types.AdopterDetails{
			FullName: in.FullName,
			Address:  in.Address,
			Phone:    in.Phone,
			Reason:   in.Reason,
		},
	})
	if err != nil {
		return types.AdoptionRequest{}, err
	}

	metrics.AdoptionTransitions.WithLabelValues(string(created.Status)).Inc()
	publish(ctx, s.publisher, s.logger, events.ForAdoption(created))
	return created, nil
}

// ListMine returns the user's requests, newest first, each with its pet.
func (s *AdoptionService) ListMine(ctx context.Context, userID int) ([]types.AdoptionRequest, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListAll returns every request, optionally filtered by a status name in
// any letter case.
func (s *AdoptionService) ListAll(ctx context.Context, rawStatus string) ([]types.AdoptionRequest, error) {
	var status types.AdoptionStatus
	if strings.TrimSpace(rawStatus) != "" {
		parsed, err := types.ParseAdoptionStatus(rawStatus)
		if err != nil {
			return nil, NewValidationError("%s", err.Error())
		}
		status = parsed
	}
	return s.repo.List(ctx, status)
}

// AdoptedPets returns the pets of the user's approved requests.
func (s *AdoptionService) AdoptedPets(ctx context.Context, userID int) ([]types.Pet, error) {
	return s.repo.ListAdoptedPets(ctx, userID)
}

// Approve moves a pending request to approved and marks its pet adopted in
// the same transaction. It fails with store.ErrPetUnavailable when the pet
// was adopted through another request.
func (s *AdoptionService) Approve(ctx context.Context, id int) (types.AdoptionRequest, error) {
	return s.transition(ctx, id, types.AdoptionApproved)
}

// Reject moves a pending request to rejected. The pet is not touched.
func (s *AdoptionService) Reject(ctx context.Context, id int) (types.AdoptionRequest, error) {
	return s.transition(ctx, id, types.AdoptionRejected)
}

func (s *AdoptionService) transition(ctx context.Context, id int, next types.AdoptionStatus) (types.AdoptionRequest, error) {
	req, err := s.repo.Transition(ctx, id, next)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrPetUnavailable):
			metrics.AdoptionConflicts.WithLabelValues("pet_unavailable").Inc()
		case errors.Is(err, store.ErrInvalidTransition):
			metrics.AdoptionConflicts.WithLabelValues("invalid_transition").Inc()
		}
		return types.AdoptionRequest{}, err
	}

	metrics.AdoptionTransitions.WithLabelValues(string(req.Status)).Inc()
	s.logger.InfoContext(ctx, "adoption request decided",
		"adoption_id", req.ID, "pet_id", req.PetID, "status", string(req.Status))
	publish(ctx, s.publisher, s.logger, events.ForAdoption(req))
	return req, nil
}
