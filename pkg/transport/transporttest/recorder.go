// Package transporttest provides an in-memory transport.Messenger.
package transporttest

import (
	"context"
	"errors"
	"sync"

	"dogbot/pkg/transport"
)

var ErrDelivery = errors.New("delivery failed")

type Message struct {
	To       int64
	Text     string
	Image    *transport.Image
	Keyboard transport.Keyboard
}

// Recorder keeps every successful send and fails sends to the ids passed to
// Fail.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	fail     map[int64]bool
	attempts int
}

func New() *Recorder {
	return &Recorder{fail: make(map[int64]bool)}
}

func (r *Recorder) Fail(ids ...int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.fail[id] = true
	}
}

func (r *Recorder) SendText(ctx context.Context, to int64, text string, kb transport.Keyboard) error {
	return r.record(ctx, Message{To: to, Text: text, Keyboard: kb})
}

func (r *Recorder) SendImage(ctx context.Context, to int64, img transport.Image, caption string, kb transport.Keyboard) error {
	return r.record(ctx, Message{To: to, Text: caption, Image: &img, Keyboard: kb})
}

func (r *Recorder) record(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if r.fail[m.To] {
		return ErrDelivery
	}
	r.messages = append(r.messages, m)
	return nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// To returns the messages delivered to id, oldest first.
func (r *Recorder) To(id int64) []Message {
	var out []Message
	for _, m := range r.Messages() {
		if m.To == id {
			out = append(out, m)
		}
	}
	return out
}

// Recipients returns the distinct ids that received at least one message.
func (r *Recorder) Recipients() []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, m := range r.Messages() {
		if !seen[m.To] {
			seen[m.To] = true
			ids = append(ids, m.To)
		}
	}
	return ids
}

func (r *Recorder) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
	r.attempts = 0
}

// Data flattens the callback payloads of a keyboard.
func Data(kb transport.Keyboard) []string {
	var out []string
	for _, row := range kb {
		for _, b := range row {
			if b.Data != "" {
				out = append(out, b.Data)
			}
		}
	}
	return out
}
