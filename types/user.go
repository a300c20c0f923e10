package types

import (
	"fmt"
	"strings"
	"time"
)

// User represents an account in the system.
// It contains identity, role, profile, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address. It is unique across accounts.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Role indicates the user's authorization level within the system.
	Role Role `json:"role" db:"role"`

	// Phone is an optional contact phone number.
	Phone string `json:"phone" db:"phone"`

	// Location is an optional free-form city or region.
	Location string `json:"location" db:"location"`

	// Address is an optional postal address.
	Address string `json:"address" db:"address"`

	// ImageKey is the object storage key of the profile image, if any.
	ImageKey string `json:"image_key,omitempty" db:"image_key"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Role is the closed set of authorization levels.
type Role string

// Supported roles.
const (
	// RoleUser is the default role for self-registered accounts.
	RoleUser Role = "user"

	// RoleAdmin can manage pets, users, adoption decisions and the inbox.
	RoleAdmin Role = "admin"
)

// ParseRole normalizes a role name. Unknown names are rejected.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Allows reports whether a caller holding r may access something that
// requires the given role. Admins may do everything users may.
func (r Role) Allows(required Role) bool {
	switch required {
	case RoleUser:
		return r == RoleUser || r == RoleAdmin
	case RoleAdmin:
		return r == RoleAdmin
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
