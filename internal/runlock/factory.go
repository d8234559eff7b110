package runlock

import (
	"context"

	"github.com/jonathan/job-ingest/internal/db"
)

// New returns a Redis-backed locker when redisURL is set and a Postgres
// advisory locker otherwise. The returned close func releases the Redis client.
func New(ctx context.Context, redisURL string, database *db.DB) (Locker, func(), error) {
	if redisURL == "" {
		return NewPGLocker(database), func() {}, nil
	}
	client, err := NewRedisClient(ctx, redisURL)
	if err != nil {
		return nil, nil, err
	}
	return NewRedisLocker(client, DefaultTTL), func() { _ = client.Close() }, nil
}
