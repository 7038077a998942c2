package presence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Tracker keeps transient online state in redis. A heartbeat refreshes a
// per-user key with a TTL; the key expiring (or an explicit MarkOffline)
// makes the user offline. Nothing here is persisted.
type Tracker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTracker(rdb *redis.Client, ttl time.Duration) *Tracker {
	return &Tracker{rdb: rdb, ttl: ttl}
}

func key(id uuid.UUID) string {
	return "presence:" + id.String()
}

func (t *Tracker) Heartbeat(ctx context.Context, id uuid.UUID) error {
	return t.rdb.Set(ctx, key(id), "1", t.ttl).Err()
}

func (t *Tracker) MarkOffline(ctx context.Context, id uuid.UUID) error {
	return t.rdb.Del(ctx, key(id)).Err()
}

func (t *Tracker) IsOnline(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := t.rdb.Exists(ctx, key(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
