package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/adoptly/apiserver/types"
)

// MessageRepository handles persistence for contact-form messages.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg types.Message) (types.Message, error) {
	msg.CreatedAt = time.Now()

	const query = `
		INSERT INTO messages (name, email, body, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, msg.Name, msg.Email, msg.Body, msg.CreatedAt).Scan(&msg.ID); err != nil {
		return types.Message{}, err
	}
	return msg, nil
}

// List returns every message, newest first.
func (r *MessageRepository) List(ctx context.Context) ([]types.Message, error) {
	const query = `
		SELECT id, name, email, body, created_at
		FROM messages
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]types.Message, 0)
	for rows.Next() {
		var msg types.Message
		if err := rows.Scan(&msg.ID, &msg.Name, &msg.Email, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM messages WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
