package services

import (
	"context"

	"github.com/adoptly/apiserver/types"
)

type StatsRepository interface {
	Stats(ctx context.Context) (types.Stats, error)
}

// StatsService backs the admin dashboard.
type StatsService struct {
	repo StatsRepository
}

func NewStatsService(repo StatsRepository) *StatsService {
	return &StatsService{repo: repo}
}

func (s *StatsService) Stats(ctx context.Context) (types.Stats, error) {
	return s.repo.Stats(ctx)
}
