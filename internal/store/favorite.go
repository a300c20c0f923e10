package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/adoptly/apiserver/types"
)

// FavoriteRepository handles the user × pet favorites association.
type FavoriteRepository struct {
	db *sql.DB
}

func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add links the pet to the user. It reports whether a new row was created;
// adding an existing pair is not an error. ErrNotFound is returned when the
// user or the pet does not exist.
func (r *FavoriteRepository) Add(ctx context.Context, userID, petID int) (bool, error) {
	const query = `
		INSERT INTO favorites (user_id, pet_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, pet_id) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query, userID, petID, time.Now())
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, ErrNotFound
		}
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Remove unlinks the pet from the user. Removing a missing pair is a no-op.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, petID int) error {
	const query = `DELETE FROM favorites WHERE user_id = $1 AND pet_id = $2`
	_, err := r.db.ExecContext(ctx, query, userID, petID)
	return err
}

// ListPets returns the user's favorited pets, most recently added first.
func (r *FavoriteRepository) ListPets(ctx context.Context, userID int) ([]types.Pet, error) {
	const query = `
		SELECT p.id, p.name, p.species, p.breed, p.age, p.description, p.image_key, p.status, p.created_at, p.updated_at
		FROM favorites f
		JOIN pets p ON p.id = f.pet_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC, p.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pets := make([]types.Pet, 0)
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, pet)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pets, nil
}
