package store

import (
	"context"
	"database/sql"

	"github.com/adoptly/apiserver/types"
)

// StatsRepository computes aggregate counts for the admin dashboard.
type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) Stats(ctx context.Context) (types.Stats, error) {
	stats := types.Stats{
		Pets: map[types.PetStatus]int{
			types.PetAvailable: 0,
			types.PetPending:   0,
			types.PetAdopted:   0,
		},
		Adoptions: map[types.AdoptionStatus]int{
			types.AdoptionPending:  0,
			types.AdoptionApproved: 0,
			types.AdoptionRejected: 0,
		},
	}

	const totals = `SELECT (SELECT COUNT(1) FROM users), (SELECT COUNT(1) FROM messages)`
	if err := r.db.QueryRowContext(ctx, totals).Scan(&stats.Users, &stats.Messages); err != nil {
		return types.Stats{}, err
	}

	if err := r.countBy(ctx, `SELECT status, COUNT(1) FROM pets GROUP BY status`, func(status string, n int) {
		stats.Pets[types.PetStatus(status)] = n
	}); err != nil {
		return types.Stats{}, err
	}

	if err := r.countBy(ctx, `SELECT status, COUNT(1) FROM adoptions GROUP BY status`, func(status string, n int) {
		stats.Adoptions[types.AdoptionStatus(status)] = n
	}); err != nil {
		return types.Stats{}, err
	}

	return stats, nil
}

func (r *StatsRepository) countBy(ctx context.Context, query string, set func(string, int)) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return err
		}
		set(status, n)
	}
	return rows.Err()
}
