package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dogbot:session"

type cmdable interface {
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Redis stores sessions as JSON with the TTL refreshed on every save, so
// drafts survive a restart of the bot.
type Redis struct {
	store cmdable
	ttl   time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{store: client, ttl: ttl}
}

func (r *Redis) key(k Key) string {
	return fmt.Sprintf("%s:%d:%d", keyPrefix, k.UserID, k.ChatID)
}

func (r *Redis) Get(ctx context.Context, key Key) (*Session, error) {
	raw, err := r.store.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *Redis) Save(ctx context.Context, s *Session) error {
	s.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.store.Set(ctx, r.key(s.Key), string(data), r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key Key) error {
	return r.store.Del(ctx, r.key(key)).Err()
}
