package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adoptly/apiserver/types"
)

const petColumns = `id, name, species, breed, age, description, image_key, status, created_at, updated_at`

// PetFilter narrows catalog listings. Zero values match everything.
type PetFilter struct {
	Status  types.PetStatus
	Species string
}

// PetRepository handles persistence for pets.
type PetRepository struct {
	db *sql.DB
}

func NewPetRepository(db *sql.DB) *PetRepository {
	return &PetRepository{db: db}
}

func scanPet(row rowScanner) (types.Pet, error) {
	var pet types.Pet
	err := row.Scan(
		&pet.ID,
		&pet.Name,
		&pet.Species,
		&pet.Breed,
		&pet.Age,
		&pet.Description,
		&pet.ImageKey,
		&pet.Status,
		&pet.CreatedAt,
		&pet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Pet{}, ErrNotFound
		}
		return types.Pet{}, err
	}
	return pet, nil
}

func (f PetFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if species := strings.TrimSpace(f.Species); species != "" {
		args = append(args, species)
		clauses = append(clauses, fmt.Sprintf("LOWER(species) = LOWER($%d)", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *PetRepository) List(ctx context.Context, filter PetFilter, offset, limit int) ([]types.Pet, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	where, args := filter.where()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM pets`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(
		`SELECT %s FROM pets%s ORDER BY id OFFSET $%d LIMIT $%d`,
		petColumns, where, len(args)+1, len(args)+2,
	)
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	pets := make([]types.Pet, 0, limit)
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, 0, err
		}
		pets = append(pets, pet)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return pets, total, nil
}

func (r *PetRepository) Get(ctx context.Context, id int) (types.Pet, error) {
	query := `SELECT ` + petColumns + ` FROM pets WHERE id = $1`
	return scanPet(r.db.QueryRowContext(ctx, query, id))
}

func (r *PetRepository) Create(ctx context.Context, pet types.Pet) (types.Pet, error) {
	now := time.Now()
	pet.CreatedAt = now
	pet.UpdatedAt = now
	if pet.Status == "" {
		pet.Status = types.PetAvailable
	}

	const query = `
		INSERT INTO pets (name, species, breed, age, description, image_key, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		pet.Name,
		pet.Species,
		pet.Breed,
		pet.Age,
		pet.Description,
		pet.ImageKey,
		pet.Status,
		pet.CreatedAt,
		pet.UpdatedAt,
	).Scan(&pet.ID); err != nil {
		return types.Pet{}, err
	}
	return pet, nil
}

// Update writes the editable attributes. An empty pet.Status keeps the stored
// status and the image key is never touched, so an edit cannot revert an
// adoption or an image upload that committed in the meantime.
func (r *PetRepository) Update(ctx context.Context, pet types.Pet) (types.Pet, error) {
	const query = `
		UPDATE pets
		SET name = $1,
			species = $2,
			breed = $3,
			age = $4,
			description = $5,
			status = COALESCE(NULLIF($6::text, ''), status),
			updated_at = $7
		WHERE id = $8
		RETURNING ` + petColumns
	return scanPet(r.db.QueryRowContext(
		ctx,
		query,
		pet.Name,
		pet.Species,
		pet.Breed,
		pet.Age,
		pet.Description,
		string(pet.Status),
		time.Now(),
		pet.ID,
	))
}

// SetImageKey points the pet at a new image and returns the updated pet with
// the key it replaced. Only image_key and updated_at are written.
func (r *PetRepository) SetImageKey(ctx context.Context, id int, key string) (types.Pet, string, error) {
	var (
		pet      types.Pet
		previous string
	)
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		const lock = `SELECT image_key FROM pets WHERE id = $1 FOR UPDATE`
		if err := tx.QueryRowContext(ctx, lock, id).Scan(&previous); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		const update = `UPDATE pets SET image_key = $1, updated_at = $2 WHERE id = $3 RETURNING ` + petColumns
		var err error
		pet, err = scanPet(tx.QueryRowContext(ctx, update, key, time.Now(), id))
		return err
	})
	if err != nil {
		return types.Pet{}, "", err
	}
	return pet, previous, nil
}

// Delete removes the pet together with every adoption request for it and
// returns the image key so the caller can clean up object storage.
// Favorites are removed by the foreign key cascade.
func (r *PetRepository) Delete(ctx context.Context, id int) (string, error) {
	var imageKey string
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		const deleteAdopters = `
			DELETE FROM adopters
			WHERE id IN (SELECT adopter_id FROM adoptions WHERE pet_id = $1)`
		if _, err := tx.ExecContext(ctx, deleteAdopters, id); err != nil {
			return err
		}

		const deletePet = `DELETE FROM pets WHERE id = $1 RETURNING image_key`
		if err := tx.QueryRowContext(ctx, deletePet, id).Scan(&imageKey); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return imageKey, nil
}
