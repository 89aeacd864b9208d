package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogbot/pkg/models"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)
	key := Key{UserID: 1, ChatID: 1}

	_, err := m.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	s, err := Load(ctx, m, key)
	require.NoError(t, err)
	assert.False(t, s.Active())

	s.Flow = FlowOrder
	s.State = "pet_name"
	s.Order.Service = models.ServiceWalk
	require.NoError(t, m.Save(ctx, s))

	got, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, FlowOrder, got.Flow)
	assert.Equal(t, models.ServiceWalk, got.Order.Service)

	// the stored copy is independent of the caller's pointer
	got.Order.PetName = "Рекс"
	again, _ := m.Get(ctx, key)
	assert.Empty(t, again.Order.PetName)

	require.NoError(t, m.Delete(ctx, key))
	_, err = m.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	m := NewMemory(time.Hour)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Save(ctx, &Session{Key: Key{UserID: 1}, Flow: FlowOrder}))
	now = now.Add(30 * time.Minute)
	require.NoError(t, m.Save(ctx, &Session{Key: Key{UserID: 2}, Flow: FlowWalker}))

	now = now.Add(45 * time.Minute)
	_, err := m.Get(ctx, Key{UserID: 1})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, Key{UserID: 2})
	assert.NoError(t, err)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
}

func TestMemorySchedule(t *testing.T) {
	m := NewMemory(time.Minute)
	c := cron.New()
	id, err := m.Schedule(c, "@every 1m", nil)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Len(t, c.Entries(), 1)

	_, err = m.Schedule(c, "not a spec", nil)
	assert.Error(t, err)
}

func TestSessionReset(t *testing.T) {
	s := New(Key{UserID: 5, ChatID: 6})
	s.Flow = FlowProposal
	s.Proposal.OrderID = 10
	s.Reset()
	assert.Equal(t, Key{UserID: 5, ChatID: 6}, s.Key)
	assert.False(t, s.Active())
	assert.Zero(t, s.Proposal.OrderID)
}

type mockCmdable struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	store := &Redis{store: mock, ttl: 24 * time.Hour}
	key := Key{UserID: 7, ChatID: 8}

	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	budget := 1500
	at := time.Date(2026, 10, 20, 16, 0, 0, 0, time.UTC)
	s := &Session{Key: key, Flow: FlowOrder, State: "budget"}
	s.Order.ScheduledAt = at
	s.Order.Budget = &budget
	require.NoError(t, store.Save(ctx, s))

	assert.Equal(t, 24*time.Hour, mock.ttls["dogbot:session:7:8"])

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, State("budget"), got.State)
	assert.True(t, at.Equal(got.Order.ScheduledAt))
	require.NotNil(t, got.Order.Budget)
	assert.Equal(t, 1500, *got.Order.Budget)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisCorruptValue(t *testing.T) {
	mock := newMockCmdable()
	mock.data["dogbot:session:1:1"] = "{not json"
	store := &Redis{store: mock}
	_, err := store.Get(context.Background(), Key{UserID: 1, ChatID: 1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
