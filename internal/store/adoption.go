package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/adoptly/apiserver/types"
)

const adoptionColumns = `
	a.id, a.pet_id, d.user_id, a.status, a.created_at, a.updated_at,
	d.id, d.full_name, d.address, d.phone, d.reason`

const adoptionWithPetColumns = adoptionColumns + `,
	p.id, p.name, p.species, p.breed, p.age, p.description, p.image_key, p.status, p.created_at, p.updated_at`

// AdoptionRepository persists adoption requests. One request is stored as an
// adopter-detail row plus an adoption row that references it; both are always
// written in the same transaction.
type AdoptionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewAdoptionRepository(db *sql.DB) *AdoptionRepository {
	return &AdoptionRepository{db: db, now: time.Now}
}

func scanAdoption(row rowScanner, withPet bool) (types.AdoptionRequest, error) {
	var req types.AdoptionRequest
	dest := []any{
		&req.ID,
		&req.PetID,
		&req.UserID,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.Adopter.ID,
		&req.Adopter.FullName,
		&req.Adopter.Address,
		&req.Adopter.Phone,
		&req.Adopter.Reason,
	}
	var pet types.Pet
	if withPet {
		dest = append(dest,
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
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.AdoptionRequest{}, ErrNotFound
		}
		return types.AdoptionRequest{}, err
	}
	if withPet {
		req.Pet = &pet
	}
	return req, nil
}

// Create inserts the adopter details and the pending adoption row. It returns
// ErrNotFound when the pet or the submitting user does not exist.
func (r *AdoptionRepository) Create(ctx context.Context, req types.AdoptionRequest) (types.AdoptionRequest, error) {
	now := r.now()
	req.Status = types.AdoptionPending
	req.CreatedAt = now
	req.UpdatedAt = now

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM pets WHERE id = $1`, req.PetID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		const insertAdopter = `
			INSERT INTO adopters (user_id, full_name, address, phone, reason, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`
		if err := tx.QueryRowContext(
			ctx,
			insertAdopter,
			req.UserID,
			req.Adopter.FullName,
			req.Adopter.Address,
			req.Adopter.Phone,
			req.Adopter.Reason,
			now,
		).Scan(&req.Adopter.ID); err != nil {
			if isForeignKeyViolation(err) {
				return ErrNotFound
			}
			return err
		}

		const insertAdoption = `
			INSERT INTO adoptions (pet_id, adopter_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`
		return tx.QueryRowContext(
			ctx,
			insertAdoption,
			req.PetID,
			req.Adopter.ID,
			req.Status,
			req.CreatedAt,
			req.UpdatedAt,
		).Scan(&req.ID)
	})
	if err != nil {
		return types.AdoptionRequest{}, err
	}
	return req, nil
}

// ListByUser returns every request submitted by the user, newest first, each
// joined with its pet.
func (r *AdoptionRepository) ListByUser(ctx context.Context, userID int) ([]types.AdoptionRequest, error) {
	query := `
		SELECT` + adoptionWithPetColumns + `
		FROM adoptions a
		JOIN adopters d ON d.id = a.adopter_id
		JOIN pets p ON p.id = a.pet_id
		WHERE d.user_id = $1
		ORDER BY a.created_at DESC, a.id DESC`
	return r.list(ctx, query, userID)
}

// List returns every request, optionally narrowed to one status, newest first.
func (r *AdoptionRepository) List(ctx context.Context, status types.AdoptionStatus) ([]types.AdoptionRequest, error) {
	query := `
		SELECT` + adoptionWithPetColumns + `
		FROM adoptions a
		JOIN adopters d ON d.id = a.adopter_id
		JOIN pets p ON p.id = a.pet_id
		WHERE ($1 = '' OR a.status = $1)
		ORDER BY a.created_at DESC, a.id DESC`
	return r.list(ctx, query, string(status))
}

func (r *AdoptionRepository) list(ctx context.Context, query string, args ...any) ([]types.AdoptionRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]types.AdoptionRequest, 0)
	for rows.Next() {
		req, err := scanAdoption(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAdoptedPets returns the pets of the user's approved requests.
func (r *AdoptionRepository) ListAdoptedPets(ctx context.Context, userID int) ([]types.Pet, error) {
	const query = `
		SELECT p.id, p.name, p.species, p.breed, p.age, p.description, p.image_key, p.status, p.created_at, p.updated_at
		FROM adoptions a
		JOIN adopters d ON d.id = a.adopter_id
		JOIN pets p ON p.id = a.pet_id
		WHERE d.user_id = $1 AND a.status = $2
		ORDER BY a.updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, types.AdoptionApproved)
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

// Transition moves a pending request to next inside one transaction.
//
// The adoption row is locked first. Approving additionally locks the pet row
// and marks it adopted, failing with ErrPetUnavailable when another approval
// got there first. Requests outside the pending state fail with
// ErrInvalidTransition and nothing is written.
func (r *AdoptionRepository) Transition(ctx context.Context, id int, next types.AdoptionStatus) (types.AdoptionRequest, error) {
	var req types.AdoptionRequest
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		lockAdoption := `
			SELECT` + adoptionColumns + `
			FROM adoptions a
			JOIN adopters d ON d.id = a.adopter_id
			WHERE a.id = $1
			FOR UPDATE OF a`
		var err error
		req, err = scanAdoption(tx.QueryRowContext(ctx, lockAdoption, id), false)
		if err != nil {
			return err
		}

		if !req.Status.CanTransitionTo(next) {
			return ErrInvalidTransition
		}

		now := r.now()
		if next == types.AdoptionApproved {
			var petStatus types.PetStatus
			const lockPet = `SELECT status FROM pets WHERE id = $1 FOR UPDATE`
			if err := tx.QueryRowContext(ctx, lockPet, req.PetID).Scan(&petStatus); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrNotFound
				}
				return err
			}
			if petStatus == types.PetAdopted {
				return ErrPetUnavailable
			}

			const adoptPet = `UPDATE pets SET status = $1, updated_at = $2 WHERE id = $3`
			if _, err := tx.ExecContext(ctx, adoptPet, types.PetAdopted, now, req.PetID); err != nil {
				return err
			}
		}

		const updateAdoption = `UPDATE adoptions SET status = $1, updated_at = $2 WHERE id = $3`
		if _, err := tx.ExecContext(ctx, updateAdoption, next, now, req.ID); err != nil {
			return err
		}

		req.Status = next
		req.UpdatedAt = now
		return nil
	})
	if err != nil {
		return types.AdoptionRequest{}, err
	}
	return req, nil
}
