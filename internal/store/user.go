package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/adoptly/apiserver/types"
)

const userColumns = `id, username, email, name, role, phone, location, address, image_key, password_hash, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.Phone,
		&user.Location,
		&user.Address,
		&user.ImageKey,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]types.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (username, email, name, role, phone, location, address, image_key, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.Name,
		user.Role,
		user.Phone,
		user.Location,
		user.Address,
		user.ImageKey,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrConflict
		}
		return types.User{}, err
	}
	return user, nil
}

// Update writes the account and profile fields. Role and image key have
// their own targeted writes so a profile edit never reverts them.
func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		UPDATE users
		SET username = $1,
			email = $2,
			name = $3,
			phone = $4,
			location = $5,
			address = $6,
			password_hash = $7,
			updated_at = $8
		WHERE id = $9
		RETURNING ` + userColumns
	updated, err := scanUser(r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.Name,
		user.Phone,
		user.Location,
		user.Address,
		user.PasswordHash,
		time.Now(),
		user.ID,
	))
	if isUniqueViolation(err) {
		return types.User{}, ErrConflict
	}
	return updated, err
}

func (r *UserRepository) SetRole(ctx context.Context, id int, role types.Role) (types.User, error) {
	const query = `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, role, time.Now(), id))
}

// SetImageKey points the user at a new profile image and returns the key it
// replaced.
func (r *UserRepository) SetImageKey(ctx context.Context, id int, key string) (types.User, string, error) {
	var (
		user     types.User
		previous string
	)
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		const lock = `SELECT image_key FROM users WHERE id = $1 FOR UPDATE`
		if err := tx.QueryRowContext(ctx, lock, id).Scan(&previous); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		const update = `UPDATE users SET image_key = $1, updated_at = $2 WHERE id = $3 RETURNING ` + userColumns
		var err error
		user, err = scanUser(tx.QueryRowContext(ctx, update, key, time.Now(), id))
		return err
	})
	if err != nil {
		return types.User{}, "", err
	}
	return user, previous, nil
}

// Delete removes the user and returns the profile image key so the caller can
// clean up object storage. Adopter rows, their adoptions and favorites are
// removed by foreign key cascades.
func (r *UserRepository) Delete(ctx context.Context, id int) (string, error) {
	const query = `DELETE FROM users WHERE id = $1 RETURNING image_key`
	var imageKey string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&imageKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return imageKey, nil
}
