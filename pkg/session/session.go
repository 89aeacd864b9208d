// Package session keeps the in-progress wizard state of each conversation.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dogbot/pkg/models"
)

var ErrNotFound = errors.New("session not found")

type Key struct {
	UserID int64 `json:"user_id"`
	ChatID int64 `json:"chat_id"`
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.UserID, k.ChatID)
}

type Flow string

const (
	FlowNone     Flow = ""
	FlowOrder    Flow = "order"
	FlowWalker   Flow = "walker"
	FlowProposal Flow = "proposal"
)

// State names the step a flow is waiting on. Each wizard defines its own.
type State string

type OrderDraft struct {
	Service         models.Service   `json:"service,omitempty"`
	WalkType        *models.WalkType `json:"walk_type,omitempty"`
	PetName         string           `json:"pet_name,omitempty"`
	PetSize         models.PetSize   `json:"pet_size,omitempty"`
	Area            string           `json:"area,omitempty"`
	ScheduledAt     time.Time        `json:"scheduled_at,omitempty"`
	DurationMinutes int              `json:"duration_minutes,omitempty"`
	Address         string           `json:"address,omitempty"`
	Budget          *int             `json:"budget,omitempty"`
	Comment         *string          `json:"comment,omitempty"`
}

type WalkerDraft struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Bio   string `json:"bio,omitempty"`
	Rate  *int   `json:"rate,omitempty"`
	Areas string `json:"areas,omitempty"`
}

type ProposalDraft struct {
	OrderID int64   `json:"order_id,omitempty"`
	Price   int     `json:"price,omitempty"`
	Note    *string `json:"note,omitempty"`
}

type Session struct {
	Key       Key           `json:"key"`
	Flow      Flow          `json:"flow"`
	State     State         `json:"state"`
	Order     OrderDraft    `json:"order"`
	Walker    WalkerDraft   `json:"walker"`
	Proposal  ProposalDraft `json:"proposal"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func New(key Key) *Session {
	return &Session{Key: key}
}

// Reset drops the flow and every draft.
func (s *Session) Reset() {
	*s = Session{Key: s.Key, UpdatedAt: s.UpdatedAt}
}

func (s *Session) Active() bool {
	return s.Flow != FlowNone
}

type Store interface {
	// Get returns ErrNotFound when the key has no live session.
	Get(ctx context.Context, key Key) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, key Key) error
}

// Load returns the stored session or a fresh one.
func Load(ctx context.Context, store Store, key Key) (*Session, error) {
	s, err := store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return New(key), nil
	}
	return s, err
}
