// Package wizard holds the conversation state machines. They only read and
// write the session; persistence and delivery happen in the caller once a
// step reports Commit.
package wizard

import (
	"dogbot/pkg/action"
	"dogbot/pkg/transport"
)

type Outcome int

const (
	// Continue means the input was accepted and the session moved on.
	Continue Outcome = iota
	// Invalid means the input was rejected and the state did not change.
	Invalid
	// Commit means the draft is complete and should be persisted.
	Commit
	// Abort means the flow ended without persisting anything.
	Abort
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Invalid:
		return "invalid"
	case Commit:
		return "commit"
	case Abort:
		return "abort"
	}
	return "unknown"
}

type Step struct {
	Reply    string
	Keyboard transport.Keyboard
	Outcome  Outcome
}

func next(reply string) Step {
	return Step{Reply: reply, Outcome: Continue}
}

func retry(reply string, kb transport.Keyboard) Step {
	return Step{Reply: reply, Keyboard: kb, Outcome: Invalid}
}

func cancelRow() []transport.Button {
	return transport.Row(transport.ActionButton("⬅️ Отмена", action.BackToMain()))
}
