package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adoptly/apiserver/internal/events"
	"github.com/adoptly/apiserver/internal/storage"
	"github.com/adoptly/apiserver/internal/store/memory"
	"github.com/adoptly/apiserver/types"
)

func addPet(db *memory.DB, name string, status types.PetStatus) types.Pet {
	return db.SeedPet(types.Pet{Name: name, Species: "dog", Status: status})
}

func addUser(db *memory.DB, username string, role types.Role) types.User {
	return db.SeedUser(types.User{
		Username: username,
		Email:    username + "@example.com",
		Name:     username,
		Role:     role,
	})
}

func petStatus(t *testing.T, db *memory.DB, id int) types.PetStatus {
	t.Helper()
	pet, ok := db.Pet(id)
	require.True(t, ok, "pet %d missing", id)
	return pet.Status
}

func adoptionStatus(t *testing.T, db *memory.DB, id int) types.AdoptionStatus {
	t.Helper()
	req, ok := db.Adoption(id)
	require.True(t, ok, "adoption %d missing", id)
	return req.Status
}

func requireDeleted(t *testing.T, images *storage.MemoryStorage, key string) {
	t.Helper()
	_, err := images.Get(context.Background(), key)
	require.ErrorIs(t, err, storage.ErrObjectNotFound)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) eventTypes() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, evt := range p.events {
		out = append(out, evt.Type)
	}
	return out
}

var errBrokerDown = errors.New("broker down")

// interleavedImages runs during before each upload completes, standing in for
// a request that commits while the object is still being written.
type interleavedImages struct {
	*storage.MemoryStorage
	during func()
}

func (s interleavedImages) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s.during != nil {
		s.during()
	}
	return s.MemoryStorage.Put(ctx, key, r, size, contentType)
}
