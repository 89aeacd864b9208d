package models

import "time"

// Proposal is unique per (OrderID, WalkerID); resubmitting replaces Price and Note.
type Proposal struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	WalkerID  int64     `json:"walker_id"`
	Price     int       `json:"price"`
	Note      *string   `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// Candidate is a proposal joined with the walker's user row and profile.
type Candidate struct {
	Proposal
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	Phone       *string `json:"phone"`
	BaseRate    *int    `json:"base_rate"`
	Areas       string  `json:"areas"`
	IsApproved  bool    `json:"is_approved"`
}
