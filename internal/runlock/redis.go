package runlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a Redis lease survives without a refresh.
const DefaultTTL = 2 * time.Minute

var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisLocker holds locks as Redis keys with a random token. A held lease is
// refreshed in the background until released.
type RedisLocker struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisLocker creates a locker. A non-positive ttl uses DefaultTTL.
func NewRedisLocker(client redis.Cmdable, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// TryAcquire sets the lock key if absent or returns ErrLocked.
func (l *RedisLocker) TryAcquire(ctx context.Context, name string) (Lease, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, name, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock %q: %w", name, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	lease := &redisLease{
		client: l.client,
		key:    name,
		token:  token,
		ttl:    l.ttl,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go lease.keepAlive()
	return lease, nil
}

type redisLease struct {
	client redis.Cmdable
	key    string
	token  string
	ttl    time.Duration

	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func (l *redisLease) keepAlive() {
	defer close(l.done)
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
			_ = refreshScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Err()
			cancel()
		}
	}
}

// Release deletes the key only if this lease still owns it.
func (l *redisLease) Release(ctx context.Context) error {
	var err error
	l.once.Do(func() {
		close(l.stop)
		<-l.done
		if e := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); e != nil {
			err = fmt.Errorf("failed to release run lock %q: %w", l.key, e)
		}
	})
	return err
}
