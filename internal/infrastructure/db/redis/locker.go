package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/loanpro/lending-system/internal/core/domain"
)

const (
	lockTTL       = 30 * time.Second
	lockRetryWait = 50 * time.Millisecond
	lockRetries   = 10
)

// Locker serializes mutations per application identifier with a Redis-backed
// distributed lock. Key format: lock:application:<application_id>
type Locker struct {
	client *redislock.Client
}

// NewLocker creates a Locker wrapping the given Redis client.
func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: redislock.New(client)}
}

// Acquire obtains the per-application lock, retrying briefly before giving up
// with domain.ErrLockNotObtained. The returned release func is safe to defer.
func (l *Locker) Acquire(ctx context.Context, applicationID string) (func(), error) {
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(lockRetryWait), lockRetries),
	}

	lock, err := l.client.Obtain(ctx, "lock:application:"+applicationID, lockTTL, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, domain.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock: %w", err)
	}

	release := func() {
		// Release must not inherit a possibly cancelled request context.
		releaseCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		_ = lock.Release(releaseCtx)
	}
	return release, nil
}
