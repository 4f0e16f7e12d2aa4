package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("redis: lock held by another owner")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-key mutex with a TTL, shared between replicas.
type Lock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewLock builds a lock on key. The ttl bounds how long a crashed holder blocks others.
func NewLock(client *redis.Client, key string, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Lock{client: client, key: key, ttl: ttl}
}

// Acquire takes the lock and returns a release func, or ErrLockHeld.
func (l *Lock) Acquire(ctx context.Context) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{l.key}, token).Err()
	}, nil
}
