// Package transport is the narrow outbound surface the services need from the
// chat platform.
package transport

import (
	"context"

	"dogbot/pkg/action"
)

// Button is a callback button (Data) or a link (URL). A button with neither
// is a plain reply-keyboard button that sends its text back.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is one slice per row.
type Keyboard [][]Button

// Inline reports whether the keyboard carries callback or link buttons.
func (kb Keyboard) Inline() bool {
	for _, row := range kb {
		for _, b := range row {
			if b.Data != "" || b.URL != "" {
				return true
			}
		}
	}
	return false
}

// Image references a picture already known to the platform (FileID) or
// reachable over HTTP (URL).
type Image struct {
	FileID string
	URL    string
}

type Messenger interface {
	SendText(ctx context.Context, to int64, text string, kb Keyboard) error
	SendImage(ctx context.Context, to int64, img Image, caption string, kb Keyboard) error
}

func ActionButton(text string, tok action.Token) Button {
	return Button{Text: text, Data: tok.Encode()}
}

func TextButton(text string) Button {
	return Button{Text: text}
}

func LinkButton(text, url string) Button {
	return Button{Text: text, URL: url}
}

func Row(buttons ...Button) []Button {
	return buttons
}

// Rows builds a keyboard from rows, dropping empty ones.
func Rows(rows ...[]Button) Keyboard {
	kb := make(Keyboard, 0, len(rows))
	for _, r := range rows {
		if len(r) > 0 {
			kb = append(kb, r)
		}
	}
	return kb
}
