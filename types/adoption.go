package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AdoptionRequest represents one user's request to adopt one pet.
// The adopter details are captured once per request and are never shared
// between requests.
type AdoptionRequest struct {
	// ID is the unique identifier of the adoption request.
	ID int `json:"id" db:"id"`

	// PetID identifies the pet the user wants to adopt.
	PetID int `json:"pet_id" db:"pet_id"`

	// UserID identifies the account that submitted the request.
	UserID int `json:"user_id" db:"user_id"`

	// Adopter holds the personal details supplied with the request.
	Adopter AdopterDetails `json:"adopter"`

	// Status is the position of the request in its lifecycle.
	Status AdoptionStatus `json:"status" db:"status"`

	// Pet is the referenced pet. It is only populated by listing queries
	// that join the pet row.
	Pet *Pet `json:"pet,omitempty"`

	// CreatedAt is the timestamp when the request was submitted.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent status change.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AdopterDetails is the personal information captured with a request.
type AdopterDetails struct {
	// ID is the identifier of the stored adopter-detail row.
	ID int `json:"id" db:"id"`

	// FullName is the adopter's legal name.
	FullName string `json:"full_name" db:"full_name"`

	// Address is where the pet will live.
	Address string `json:"address" db:"address"`

	// Phone is a contact number for the shelter to follow up.
	Phone string `json:"phone" db:"phone"`

	// Reason is optional free text explaining the request.
	Reason string `json:"reason" db:"reason"`
}

// AdoptionStatus is the lifecycle state of an adoption request.
type AdoptionStatus string

// Supported adoption statuses.
const (
	// AdoptionPending is the initial state of every new request.
	AdoptionPending AdoptionStatus = "pending"

	// AdoptionApproved is terminal; the pet has been adopted.
	AdoptionApproved AdoptionStatus = "approved"

	// AdoptionRejected is terminal; the request was declined.
	AdoptionRejected AdoptionStatus = "rejected"
)

// ParseAdoptionStatus normalizes a status name, accepting any letter case.
func ParseAdoptionStatus(raw string) (AdoptionStatus, error) {
	switch AdoptionStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case AdoptionPending:
		return AdoptionPending, nil
	case AdoptionApproved:
		return AdoptionApproved, nil
	case AdoptionRejected:
		return AdoptionRejected, nil
	default:
		return "", fmt.Errorf("unknown adoption status %q", raw)
	}
}

// CanTransitionTo reports whether s may move to next.
func (s AdoptionStatus) CanTransitionTo(next AdoptionStatus) bool {
	if s != AdoptionPending {
		return false
	}
	return next == AdoptionApproved || next == AdoptionRejected
}

func (s AdoptionStatus) String() string {
	return string(s)
}

// UnmarshalJSON accepts any letter case.
func (s *AdoptionStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseAdoptionStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
