package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Pet represents an adoptable animal listed in the catalog.
type Pet struct {
	// ID is the unique identifier of the pet.
	ID int `json:"id" db:"id"`

	// Name is the pet's given name.
	Name string `json:"name" db:"name"`

	// Species is the kind of animal (e.g., "dog", "cat").
	Species string `json:"species" db:"species"`

	// Breed is the free-form breed description.
	Breed string `json:"breed" db:"breed"`

	// Age is the pet's age in years.
	Age int `json:"age" db:"age"`

	// Description is the public profile text shown to adopters.
	Description string `json:"description" db:"description"`

	// ImageKey is the object storage key of the pet's photo, if any.
	ImageKey string `json:"image_key,omitempty" db:"image_key"`

	// Status is the pet's availability for adoption.
	Status PetStatus `json:"status" db:"status"`

	// CreatedAt is the timestamp at which the pet was listed.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the pet.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PetStatus is the availability of a pet.
type PetStatus string

// Supported pet statuses.
const (
	// PetAvailable means the pet is open for adoption.
	PetAvailable PetStatus = "available"

	// PetPending means the pet is reserved while a request is reviewed.
	PetPending PetStatus = "pending"

	// PetAdopted means the pet has an approved adoption and is unavailable.
	PetAdopted PetStatus = "adopted"
)

// ParsePetStatus normalizes a status name, accepting any letter case.
func ParsePetStatus(raw string) (PetStatus, error) {
	switch PetStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case PetAvailable:
		return PetAvailable, nil
	case PetPending:
		return PetPending, nil
	case PetAdopted:
		return PetAdopted, nil
	default:
		return "", fmt.Errorf("unknown pet status %q", raw)
	}
}

func (s PetStatus) String() string {
	return string(s)
}

// UnmarshalJSON accepts legacy capitalized values such as "Adopted".
func (s *PetStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		*s = ""
		return nil
	}
	parsed, err := ParsePetStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
