package models

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusPublished Status = "published"
	StatusAssigned  Status = "assigned"
	StatusDone      Status = "done"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPublished, StatusAssigned, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses accept no further mutation.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

type Event string

const (
	EventPublish    Event = "publish"
	EventAssign     Event = "assign"
	EventCancel     Event = "cancel"
	EventComplete   Event = "complete"
	EventReschedule Event = "reschedule"
	EventReaddress  Event = "readdress"
	EventReassign   Event = "reassign"
)

var ErrInvalidTransition = errors.New("invalid status transition")

type TransitionError struct {
	From  Status
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s order in status %s", e.Event, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

var transitions = map[Status]map[Event]Status{
	StatusOpen: {
		EventPublish:    StatusPublished,
		EventAssign:     StatusAssigned,
		EventCancel:     StatusCancelled,
		EventReschedule: StatusOpen,
		EventReaddress:  StatusOpen,
	},
	StatusPublished: {
		EventAssign:     StatusAssigned,
		EventCancel:     StatusCancelled,
		EventReschedule: StatusPublished,
		EventReaddress:  StatusPublished,
	},
	StatusAssigned: {
		EventComplete:   StatusDone,
		EventCancel:     StatusCancelled,
		EventReschedule: StatusAssigned,
		EventReaddress:  StatusAssigned,
		EventReassign:   StatusAssigned,
	},
}

// Transition returns the status an order moves to when event is applied in
// status from.
func Transition(from Status, event Event) (Status, error) {
	to, ok := transitions[from][event]
	if !ok {
		return from, &TransitionError{From: from, Event: event}
	}
	return to, nil
}
