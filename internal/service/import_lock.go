package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ImportLocker serialises executes for one user account. Lock returns
// ErrImportInProgress when the key is already held.
type ImportLocker interface {
	Lock(ctx context.Context, key string) (unlock func(context.Context) error, err error)
}

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisImportLocker is an ImportLocker backed by SET NX PX
type RedisImportLocker struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewRedisImportLocker creates a new RedisImportLocker. The lock expires after
// ttl if the holder dies without releasing it.
func NewRedisImportLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisImportLocker {
	return &RedisImportLocker{rdb: rdb, ttl: ttl}
}

// Lock acquires key
func (l *RedisImportLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire import lock: %w", err)
	}
	if !ok {
		return nil, ErrImportInProgress
	}

	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
	}, nil
}

func importLockKey(userID, accountID uint) string {
	return fmt.Sprintf("import:lock:%d:%d", userID, accountID)
}
