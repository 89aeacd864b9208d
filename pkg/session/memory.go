package session

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Memory is a process-local Store. Sessions idle for longer than ttl are
// treated as missing and removed by Sweep.
type Memory struct {
	mu    sync.Mutex
	items map[Key]Session
	ttl   time.Duration
	now   func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		items: make(map[Key]Session),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key Key) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.items[key]
	if !ok || m.expired(s) {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.UpdatedAt = m.now()
	m.items[s.Key] = *s
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Sweep removes expired sessions and reports how many were dropped.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, s := range m.items {
		if m.expired(s) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Schedule registers Sweep on c with the given cron spec.
func (m *Memory) Schedule(c *cron.Cron, spec string, onSweep func(int)) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		n := m.Sweep()
		if onSweep != nil {
			onSweep(n)
		}
	})
}

func (m *Memory) expired(s Session) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}
