// Package memory implements the repositories on top of in-process maps. It
// mirrors the postgres rules the services rely on: approval adopts the pet
// atomically, favorites are a set, and deletes cascade.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/adoptly/apiserver/types"
)

// DB is the shared state behind every repository in this package.
type DB struct {
	mu        sync.Mutex
	nextID    int
	now       time.Time
	users     map[int]types.User
	pets      map[int]types.Pet
	adoptions map[int]types.AdoptionRequest
	favorites map[favoriteKey]time.Time
	messages  map[int]types.Message
}

type favoriteKey struct {
	userID int
	petID  int
}

func New() *DB {
	return &DB{
		now:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		users:     map[int]types.User{},
		pets:      map[int]types.Pet{},
		adoptions: map[int]types.AdoptionRequest{},
		favorites: map[favoriteKey]time.Time{},
		messages:  map[int]types.Message{},
	}
}

func (db *DB) id() int {
	db.nextID++
	return db.nextID
}

// tick advances the clock so that every write gets a distinct timestamp and
// newest-first orderings are deterministic.
func (db *DB) tick() time.Time {
	db.now = db.now.Add(time.Minute)
	return db.now
}

// SeedUser inserts a user directly.
func (db *DB) SeedUser(user types.User) types.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	now := db.tick()
	user.ID = db.id()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Role == "" {
		user.Role = types.RoleUser
	}
	db.users[user.ID] = user
	return user
}

// SeedPet inserts a pet directly.
func (db *DB) SeedPet(pet types.Pet) types.Pet {
	db.mu.Lock()
	defer db.mu.Unlock()
	now := db.tick()
	pet.ID = db.id()
	pet.CreatedAt, pet.UpdatedAt = now, now
	if pet.Status == "" {
		pet.Status = types.PetAvailable
	}
	db.pets[pet.ID] = pet
	return pet
}

// Pet returns the stored pet row.
func (db *DB) Pet(id int) (types.Pet, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	pet, ok := db.pets[id]
	return pet, ok
}

// Adoption returns the stored adoption request without its pet.
func (db *DB) Adoption(id int) (types.AdoptionRequest, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	req, ok := db.adoptions[id]
	return req, ok
}

// Counts reports the number of adoption, favorite and message rows.
func (db *DB) Counts() (adoptions, favorites, messages int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.adoptions), len(db.favorites), len(db.messages)
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func sortByID[T any](items []T, id func(T) int) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}
