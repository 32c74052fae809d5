package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/commission-dashboard/sales-api/internal/core/ports"
)

const defaultLockTTL = 5 * time.Second

var ErrLockTimeout = errors.New("lock not obtained")

// Locker hands out short-lived distributed locks. Key format: lock:<key>
//
// When Redis cannot be reached the caller proceeds unlocked, so callers must
// stay correct without the lock.
type Locker struct {
	locks *redislock.Client
	ttl   time.Duration
	log   zerolog.Logger
}

var _ ports.Locker = (*Locker)(nil)

func NewLocker(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Locker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Locker{locks: redislock.New(client), ttl: ttl, log: log}
}

// Lock waits up to the lock TTL for key, retrying every 50ms.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	retries := int(l.ttl / (50 * time.Millisecond))
	lock, err := l.locks.Obtain(ctx, "lock:"+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), retries),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("obtain lock: %w", ctxErr)
		}
		l.log.Warn().Err(err).Str("lock", key).Msg("lock unavailable, continuing without it")
		return func() {}, nil
	}
	return func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}, nil
}
