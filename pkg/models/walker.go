package models

import "time"

// WalkerProfile holds a provider's public card. Areas is kept as the free text
// the walker typed, comma separated by convention.
type WalkerProfile struct {
	WalkerID   int64     `json:"walker_id"`
	Phone      *string   `json:"phone" validate:"omitempty,startswith=+,min=10"`
	City       *string   `json:"city" validate:"omitempty,max=64"`
	Areas      string    `json:"areas" validate:"max=200"`
	Experience *string   `json:"experience" validate:"omitempty,max=500"`
	BaseRate   *int      `json:"base_rate" validate:"omitempty,min=0"`
	Bio        *string   `json:"bio" validate:"omitempty,max=500"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`

	// Filled from users on joined reads.
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}
