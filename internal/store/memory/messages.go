package memory

import (
	"context"
	"sort"

	"github.com/adoptly/apiserver/internal/store"
	"github.com/adoptly/apiserver/types"
)

type MessageRepository struct{ db *DB }

func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(_ context.Context, msg types.Message) (types.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	msg.ID = r.db.id()
	msg.CreatedAt = r.db.tick()
	r.db.messages[msg.ID] = msg
	return msg, nil
}

func (r *MessageRepository) List(_ context.Context) ([]types.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]types.Message, 0, len(r.db.messages))
	for _, msg := range r.db.messages {
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MessageRepository) Delete(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.messages[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.messages, id)
	return nil
}

// Stats implements the admin dashboard counts.
func (db *DB) Stats(_ context.Context) (types.Stats, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	stats := types.Stats{
		Users:     len(db.users),
		Messages:  len(db.messages),
		Pets:      map[types.PetStatus]int{types.PetAvailable: 0, types.PetPending: 0, types.PetAdopted: 0},
		Adoptions: map[types.AdoptionStatus]int{types.AdoptionPending: 0, types.AdoptionApproved: 0, types.AdoptionRejected: 0},
	}
	for _, pet := range db.pets {
		stats.Pets[pet.Status]++
	}
	for _, req := range db.adoptions {
		stats.Adoptions[req.Status]++
	}
	return stats, nil
}
