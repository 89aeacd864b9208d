package storage

import (
	"context"
	"errors"
	"time"

	"dogbot/pkg/models"
)

var ErrNotFound = errors.New("not found")

type IStorage interface {
	User() IUserStorage
	Walker() IWalkerStorage
	Order() IOrderStorage
	Proposal() IProposalStorage
	Ping(ctx context.Context) error
	Close()
}

type IUserStorage interface {
	// Upsert refreshes username/display name and keeps role and phone unless
	// the incoming values are set.
	Upsert(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id int64) (*models.User, error)
	SetRole(ctx context.Context, id int64, role models.Role) error
}

type IWalkerStorage interface {
	// Register upserts the user with role walker and the profile in one
	// transaction. A new profile starts unapproved; an existing approval is kept.
	Register(ctx context.Context, user *models.User, profile *models.WalkerProfile) error
	GetProfile(ctx context.Context, walkerID int64) (*models.WalkerProfile, error)
	UpdateAreas(ctx context.Context, walkerID int64, areas string) error
	UpdateRate(ctx context.Context, walkerID int64, rate int) error
	SetApproval(ctx context.Context, walkerID int64, approved bool) error
	ListApproved(ctx context.Context) ([]*models.WalkerProfile, error)
	ListPending(ctx context.Context) ([]*models.WalkerProfile, error)
}

type IOrderStorage interface {
	// CreatePublished writes the order as open and publishes it in the same
	// transaction.
	CreatePublished(ctx context.Context, order *models.Order) (*models.Order, error)
	Get(ctx context.Context, id int64) (*models.Order, error)
	ListByClient(ctx context.Context, clientID int64, limit int) ([]*models.Order, error)
	// Assign locks the order row, checks the transition and writes the
	// assignment. Losers of a race get a *models.TransitionError.
	Assign(ctx context.Context, orderID, walkerID int64) (*models.Assignment, error)
	Reassign(ctx context.Context, orderID, walkerID int64) (*models.Assignment, error)
	// Cancel returns the assignment that existed before cancelling, if any.
	Cancel(ctx context.Context, orderID int64) (*models.Assignment, error)
	Complete(ctx context.Context, orderID int64) error
	Reschedule(ctx context.Context, orderID int64, at time.Time, durationMinutes int) error
	UpdateAddress(ctx context.Context, orderID int64, address string) error
	GetAssignment(ctx context.Context, orderID int64) (*models.Assignment, error)
}

type IProposalStorage interface {
	// Upsert inserts or replaces price/note keyed by (order, walker).
	Upsert(ctx context.Context, p *models.Proposal) (int64, error)
	Get(ctx context.Context, orderID, walkerID int64) (*models.Proposal, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*models.Candidate, error)
}
