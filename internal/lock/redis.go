package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl}
}

// TryLock takes the single-writer lock for scope/key. The returned release
// func is nil when the lock is held by someone else.
func (l *RedisLocker) TryLock(ctx context.Context, scope, key string) (func(context.Context) error, error) {
	token := uuid.NewString()
	k := lockKey(scope, key)

	ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return nil, nil
	}

	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.rdb, []string{k}, token).Err()
	}, nil
}

func lockKey(scope, key string) string {
	return "idemp:" + scope + ":" + key
}
