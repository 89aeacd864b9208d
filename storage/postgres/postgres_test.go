//go:build db
// +build db

package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogbot/config"
	"dogbot/pkg/logger"
	"dogbot/pkg/models"
)

// openTestStore connects to DOGBOT_TEST_POSTGRES_DB on the POSTGRES_* host
// and empties it. Point it at a throwaway database only.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	db := os.Getenv("DOGBOT_TEST_POSTGRES_DB")
	if db == "" {
		t.Skip("DOGBOT_TEST_POSTGRES_DB is not set")
	}
	cfg := config.Load()
	cfg.PostgresDB = db

	strg, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(strg.Close)

	_, err = strg.GetPool().Exec(context.Background(),
		"TRUNCATE TABLE users, walker_profiles, orders, proposals, assignments RESTART IDENTITY CASCADE")
	require.NoError(t, err)
	return strg
}

func seed(t *testing.T, strg *Store, walkers int) *models.Order {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, strg.User().Upsert(ctx, &models.User{ID: 1, Username: "client"}))
	order, err := strg.Order().CreatePublished(ctx, &models.Order{
		ClientID:        1,
		Service:         models.ServiceNanny,
		PetName:         "Белка",
		PetSize:         models.PetSmall,
		ScheduledAt:     time.Date(2026, 10, 20, 15, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Address:         "Невский пр., 10",
		Area:            "Купчино",
	})
	require.NoError(t, err)

	phone := "+79990000000"
	for i := 0; i < walkers; i++ {
		require.NoError(t, strg.Walker().Register(ctx,
			&models.User{ID: int64(100 + i), Username: "walker"},
			&models.WalkerProfile{Phone: &phone, Areas: "Купчино"},
		))
	}
	return order
}

func TestAssignRaceTakesRowLock(t *testing.T) {
	strg := openTestStore(t)
	ctx := context.Background()

	const walkers = 8
	order := seed(t, strg, walkers)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   []int64
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
				wins = append(wins, walkerID)
			case errors.Is(err, models.ErrInvalidTransition):
				losses++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(100 + i)
	}
	wg.Wait()

	require.Len(t, wins, 1)
	assert.Equal(t, walkers-1, losses)

	got, err := strg.Order().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, got.Status)

	a, err := strg.Order().GetAssignment(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, wins[0], a.WalkerID)

	var rows int
	require.NoError(t, strg.GetPool().QueryRow(ctx,
		"SELECT count(*) FROM assignments WHERE order_id = $1", order.ID).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestCancelRacesAssign(t *testing.T) {
	strg := openTestStore(t)
	ctx := context.Background()
	order := seed(t, strg, 1)

	var (
		wg        sync.WaitGroup
		assignErr error
		cancelErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, assignErr = strg.Order().Assign(ctx, order.ID, 100)
	}()
	go func() {
		defer wg.Done()
		_, cancelErr = strg.Order().Cancel(ctx, order.ID)
	}()
	wg.Wait()

	// cancel wins either way; assign only succeeds if it got the lock first
	require.NoError(t, cancelErr)
	got, err := strg.Order().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	if assignErr != nil {
		assert.ErrorIs(t, assignErr, models.ErrInvalidTransition)
	}

	_, err = strg.Order().Assign(ctx, order.ID, 100)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}
