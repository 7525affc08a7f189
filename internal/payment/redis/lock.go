package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"ms-payment/internal/logger"
)

const keyPrefix = "payment_lock:"

// deletes the key only while it still holds our token
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReferenceLock serialises work on one payment reference across instances.
type ReferenceLock struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewReferenceLock(client *redis.Client, ttl time.Duration, log *logger.Logger) *ReferenceLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ReferenceLock{Client: client, TTL: ttl, Logger: log}
}

// Lock takes the lock for reference. ok is false when another holder has it.
// The returned func releases the lock and is safe to call after the TTL has
// expired.
func (r *ReferenceLock) Lock(ctx context.Context, reference string) (func(), bool, error) {
	key := keyPrefix + reference
	token := uuid.NewString()

	ok, err := r.Client.SetNX(ctx, key, token, r.TTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("lock %s: %w", reference, err)
	}
	if !ok {
		return nil, false, nil
	}

	return func() {
		// the caller's ctx may already be cancelled
		unlockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.unlock(unlockCtx, key, token); err != nil && r.Logger != nil {
			r.Logger.Warn("REDIS", fmt.Sprintf("Failed to release lock for %s: %v", reference, err))
		}
	}, true, nil
}

func (r *ReferenceLock) unlock(ctx context.Context, key, token string) error {
	err := unlockScript.Run(ctx, r.Client, []string{key}, token).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

// IsLocked reports whether any delivery currently holds reference.
func (r *ReferenceLock) IsLocked(ctx context.Context, reference string) (bool, error) {
	n, err := r.Client.Exists(ctx, keyPrefix+reference).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
