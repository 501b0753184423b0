package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "lock:"

// releaseScript deletes the key only if it still carries our token, so an expired lock
// re-acquired by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the key's expiry only while it still carries our token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a Locker shared by every process using the same Redis.
// While a lock is held its TTL is refreshed every third of the TTL, so a long append keeps
// it; a lock whose holder dies expires after TTL.
type RedisLocker struct {
	rdb       *redis.Client
	ttl       time.Duration
	retryWait time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl, retryWait: 25 * time.Millisecond}
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.rdb.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
			}
			return nil, fmt.Errorf("acquire redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-time.After(r.retryWait):
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.keepAlive(redisKey, token, stop, done)

	var once sync.Once
	return func() error {
		var err error
		once.Do(func() {
			close(stop)
			<-done
			// The caller's context may already be cancelled; release on a fresh one.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = releaseScript.Run(releaseCtx, r.rdb, []string{redisKey}, token).Err()
		})
		if err != nil {
			return fmt.Errorf("release redis lock %s: %w", key, err)
		}
		return nil
	}, nil
}

// keepAlive refreshes the TTL of a held lock until stop is closed or the key stops being ours.
func (r *RedisLocker) keepAlive(redisKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := r.ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := refreshScript.Run(ctx, r.rdb, []string{redisKey}, token, r.ttl.Milliseconds()).Int64()
		cancel()
		if err == nil && n == 0 {
			// Expired and possibly taken by someone else.
			return
		}
	}
}
