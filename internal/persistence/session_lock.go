package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionLockPrefix = "intervention:toggle-lock:"

// ErrLockNotAcquired is returned when another toggle holds the actor's lock
// for longer than the configured wait.
var ErrLockNotAcquired = errors.New("session lock not acquired")

// Deletes the key only while it still holds our token, so an expired lock
// taken over by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionLock serializes scan toggles per actor across service instances.
type SessionLock struct {
	client redis.UniversalClient
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	logger *zap.Logger
}

// NewSessionLock builds a lock backed by client.
func NewSessionLock(client redis.UniversalClient, ttl, wait time.Duration, logger *zap.Logger) *SessionLock {
	return &SessionLock{client: client, ttl: ttl, wait: wait, retry: 25 * time.Millisecond, logger: logger}
}

// Acquire blocks until the actor's lock is held, the wait elapses or ctx is
// done. The returned func releases the lock.
func (l *SessionLock) Acquire(ctx context.Context, actorID string) (func(), error) {
	key := sessionLockPrefix + actorID
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrLockNotAcquired
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *SessionLock) release(key, token string) {
	// Release must survive a cancelled request context.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.logger.Warn("release session lock", zap.String("key", key), zap.Error(err))
	}
}
