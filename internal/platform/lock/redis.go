package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL   = 10 * time.Second
	defaultRetryWait = 25 * time.Millisecond
	maxRetryWait     = 400 * time.Millisecond
	redisKeyPrefix   = "water-app:lock:"
)

var ErrLockLost = errors.New("lock expired before release")

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance SET NX PX lock. The TTL bounds how long a
// crashed holder can block a key.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	onLost func(key string)
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// OnLost registers a callback for releases that found the key already gone.
func (l *RedisLocker) OnLost(fn func(key string)) {
	l.onLost = fn
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()
	wait := defaultRetryWait

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, maxRetryWait)
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		released, err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Int()
		if (err != nil || released == 0) && l.onLost != nil {
			l.onLost(key)
		}
	}, nil
}
