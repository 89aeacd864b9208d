package service

import (
	"errors"

	"dogbot/pkg/models"
)

var (
	// ErrForbidden is returned by admin-only operations before any side effect.
	ErrForbidden = errors.New("forbidden")
	// ErrNotOwner covers both a missing order and one owned by someone else.
	ErrNotOwner        = errors.New("order not found or not yours")
	ErrProposalMissing = errors.New("walker has no proposal on this order")
	ErrNotWalker       = errors.New("only walkers can respond to orders")
	ErrNoDispatcher    = errors.New("dispatcher chat is not configured")
)

// ClosedError reports an order that no longer accepts proposals.
type ClosedError struct {
	Status models.Status
}

func (e *ClosedError) Error() string {
	return "order is " + string(e.Status)
}

func (e *ClosedError) Is(target error) bool {
	return target == ErrClosed
}

var ErrClosed = errors.New("order is not accepting proposals")

func accepting(o *models.Order) error {
	if o.Status == models.StatusOpen || o.Status == models.StatusPublished {
		return nil
	}
	return &ClosedError{Status: o.Status}
}
