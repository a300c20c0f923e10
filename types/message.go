package types

import "time"

// Message is a contact-form submission addressed to the shelter staff.
type Message struct {
	// ID is the unique identifier of the message.
	ID int `json:"id" db:"id"`

	// Name is the sender's name as typed in the form.
	Name string `json:"name" db:"name"`

	// Email is the sender's reply address.
	Email string `json:"email" db:"email"`

	// Body is the free-text message.
	Body string `json:"message" db:"body"`

	// CreatedAt is the timestamp when the message was received.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Stats summarizes the catalog for the admin dashboard.
type Stats struct {
	Users     int                    `json:"users"`
	Pets      map[PetStatus]int      `json:"pets"`
	Adoptions map[AdoptionStatus]int `json:"adoptions"`
	Messages  int                    `json:"messages"`
}
