package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogbot/pkg/logger"
	"dogbot/pkg/models"
	"dogbot/storage"
)

func newTestStore(t *testing.T) storage.IStorage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	strg, err := New(context.Background(), path, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(strg.Close)
	return strg
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func seedOrder(t *testing.T, strg storage.IStorage, clientID int64) *models.Order {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, strg.User().Upsert(ctx, &models.User{ID: clientID, Username: "client"}))

	walk := models.WalkNormal
	order, err := strg.Order().CreatePublished(ctx, &models.Order{
		ClientID:        clientID,
		Service:         models.ServiceWalk,
		WalkType:        &walk,
		PetName:         "Рекс",
		PetSize:         models.PetMedium,
		ScheduledAt:     time.Date(2026, 10, 20, 15, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Address:         "ул. Ленина, 1",
		Budget:          intPtr(1000),
		Area:            "Купчино",
	})
	require.NoError(t, err)
	return order
}

func seedWalker(t *testing.T, strg storage.IStorage, id int64, areas string, approved bool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, strg.Walker().Register(ctx,
		&models.User{ID: id, Username: "walker"},
		&models.WalkerProfile{Phone: strPtr("+79990000000"), Areas: areas, BaseRate: intPtr(800)},
	))
	if approved {
		require.NoError(t, strg.Walker().SetApproval(ctx, id, true))
	}
}

func TestUserRepo(t *testing.T) {
	strg := newTestStore(t)
	ctx := context.Background()

	t.Run("upsert keeps role and fills blanks", func(t *testing.T) {
		require.NoError(t, strg.User().Upsert(ctx, &models.User{ID: 1, Username: "anna", DisplayName: "Anna"}))
		require.NoError(t, strg.User().SetRole(ctx, 1, models.RoleAdmin))
		require.NoError(t, strg.User().Upsert(ctx, &models.User{ID: 1}))

		u, err := strg.User().Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, u.Role)
		assert.Equal(t, "anna", u.Username)
		assert.Equal(t, "Anna", u.DisplayName)
	})

	t.Run("set role creates user", func(t *testing.T) {
		require.NoError(t, strg.User().SetRole(ctx, 2, models.RoleWalker))
		u, err := strg.User().Get(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, models.RoleWalker, u.Role)
	})

	t.Run("invalid role", func(t *testing.T) {
		assert.Error(t, strg.User().SetRole(ctx, 1, models.Role("boss")))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := strg.User().Get(ctx, 404)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestWalkerRepo(t *testing.T) {
	strg := newTestStore(t)
	ctx := context.Background()

	seedWalker(t, strg, 10, "Купчино, Невский", false)
	seedWalker(t, strg, 11, "Петроградка", true)

	pending, err := strg.Walker().ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(10), pending[0].WalkerID)

	approved, err := strg.Walker().ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "Петроградка", approved[0].Areas)

	// re-registering keeps the existing approval
	seedWalker(t, strg, 11, "Петроградка, Васька", false)
	p, err := strg.Walker().GetProfile(ctx, 11)
	require.NoError(t, err)
	assert.True(t, p.IsApproved)
	assert.Equal(t, "Петроградка, Васька", p.Areas)

	require.NoError(t, strg.Walker().UpdateRate(ctx, 11, 1500))
	require.NoError(t, strg.Walker().UpdateAreas(ctx, 11, "Купчино"))
	p, err = strg.Walker().GetProfile(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, 1500, *p.BaseRate)
	assert.Equal(t, "Купчино", p.Areas)

	assert.ErrorIs(t, strg.Walker().UpdateRate(ctx, 999, 1), storage.ErrNotFound)
	_, err = strg.Walker().GetProfile(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOrderLifecycle(t *testing.T) {
	strg := newTestStore(t)
	ctx := context.Background()

	order := seedOrder(t, strg, 1)
	assert.Equal(t, models.StatusPublished, order.Status)
	assert.NotZero(t, order.ID)

	got, err := strg.Order().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ScheduledAt, got.ScheduledAt)
	assert.Equal(t, "Купчино", got.Area)
	require.NotNil(t, got.WalkType)
	assert.Equal(t, models.WalkNormal, *got.WalkType)

	seedWalker(t, strg, 10, "Купчино", true)
	seedWalker(t, strg, 11, "Купчино", true)

	a, err := strg.Order().Assign(ctx, order.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), a.WalkerID)

	_, err = strg.Order().Assign(ctx, order.ID, 11)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	a, err = strg.Order().Reassign(ctx, order.ID, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(11), a.WalkerID)

	stored, err := strg.Order().GetAssignment(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(11), stored.WalkerID)

	at := time.Date(2026, 10, 21, 9, 30, 0, 0, time.UTC)
	require.NoError(t, strg.Order().Reschedule(ctx, order.ID, at, 90))
	require.NoError(t, strg.Order().UpdateAddress(ctx, order.ID, "пр. Славы, 5"))

	got, err = strg.Order().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, got.Status)
	assert.Equal(t, at, got.ScheduledAt)
	assert.Equal(t, 90, got.DurationMinutes)
	assert.Equal(t, "пр. Славы, 5", got.Address)

	require.NoError(t, strg.Order().Complete(ctx, order.ID))
	_, err = strg.Order().Cancel(ctx, order.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.ErrorIs(t, strg.Order().UpdateAddress(ctx, order.ID, "где-то ещё"), models.ErrInvalidTransition)
}

func TestOrderCancel(t *testing.T) {
	strg := newTestStore(t)
	ctx := context.Background()

	open := seedOrder(t, strg, 1)
	prev, err := strg.Order().Cancel(ctx, open.ID)
	require.NoError(t, err)
	assert.Nil(t, prev)

	assigned := seedOrder(t, strg, 1)
	seedWalker(t, strg, 10, "Купчино", true)
	_, err = strg.Order().Assign(ctx, assigned.ID, 10)
	require.NoError(t, err)

	prev, err = strg.Order().Cancel(ctx, assigned.ID)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, int64(10), prev.WalkerID)

	_, err = strg.Order().Cancel(ctx, 12345)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListByClient(t *testing.T) {
	strg := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		seedOrder(t, strg, 1)
	}
	seedOrder(t, strg, 2)

	orders, err := strg.Order().ListByClient(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Greater(t, orders[0].ID, orders[1].ID)

	orders, err = strg.Order().ListByClient(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}

func TestAssignRace(t *testing.T) {
	strg := newTestStore(t)
	ctx := context.Background()

	order := seedOrder(t, strg, 1)
	const walkers = 8
	for i := int64(0); i < walkers; i++ {
		seedWalker(t, strg, 100+i, "Купчино", true)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		losses int
	)
	for i := int64(0); i < walkers; i++ {
		wg.Add(1)
		go func(walkerID int64) {
			defer wg.Done()
			_, err := strg.Order().Assign(ctx, order.ID, walkerID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, models.ErrInvalidTransition):
				losses++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(100 + i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, walkers-1, losses)

	got, err := strg.Order().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, got.Status)
}

func TestProposalRepo(t *testing.T) {
	strg := newTestStore(t)
	ctx := context.Background()

	order := seedOrder(t, strg, 1)
	seedWalker(t, strg, 10, "Купчино", true)
	seedWalker(t, strg, 11, "Купчино", false)

	id1, err := strg.Proposal().Upsert(ctx, &models.Proposal{OrderID: order.ID, WalkerID: 10, Price: 1500})
	require.NoError(t, err)
	id2, err := strg.Proposal().Upsert(ctx, &models.Proposal{OrderID: order.ID, WalkerID: 10, Price: 1200, Note: strPtr("могу раньше")})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	_, err = strg.Proposal().Upsert(ctx, &models.Proposal{OrderID: order.ID, WalkerID: 11, Price: 900})
	require.NoError(t, err)

	p, err := strg.Proposal().Get(ctx, order.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 1200, p.Price)
	require.NotNil(t, p.Note)
	assert.Equal(t, "могу раньше", *p.Note)

	cands, err := strg.Proposal().ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, int64(11), cands[0].WalkerID)
	assert.False(t, cands[0].IsApproved)
	assert.Equal(t, int64(10), cands[1].WalkerID)
	assert.True(t, cands[1].IsApproved)
	assert.Equal(t, 800, *cands[1].BaseRate)

	_, err = strg.Proposal().Get(ctx, order.ID, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
