package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADMIN_IDS", "")
	t.Setenv("ADMIN_ID", "")
	t.Setenv("BROADCAST_BATCH", "")
	t.Setenv("SESSION_TTL", "")

	cfg := Load()
	assert.Equal(t, 25, cfg.BroadcastBatch)
	assert.Equal(t, time.Second, cfg.BroadcastPause)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Empty(t, cfg.AdminIDs)
}

func TestLoadAdminIDs(t *testing.T) {
	t.Setenv("ADMIN_IDS", "111, 222,abc,,0")
	t.Setenv("ADMIN_ID", "333")

	cfg := Load()
	assert.Equal(t, []int64{111, 222, 333}, cfg.AdminIDs)
}

func TestParseIDsSkipsGarbage(t *testing.T) {
	assert.Nil(t, parseIDs(""))
	assert.Equal(t, []int64{5}, parseIDs(" x, 5 ,-"))
}
