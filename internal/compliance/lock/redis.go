package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "kyc:lock:"
	pollInterval = 25 * time.Millisecond
	minTTL       = 100 * time.Millisecond
)

// releaseScript deletes the lock only while it still carries our token, so a
// holder whose TTL lapsed cannot free someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// renewScript extends the TTL only while the lock still carries our token.
var renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// Redis is a Locker shared by every replica. The TTL caps how long a crashed
// holder blocks a customer; a live holder renews it every third of the TTL.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Redis{client: client, ttl: max(ttl, minTTL)}
}

func (r *Redis) Lock(ctx context.Context, key string) (context.Context, func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			return nil, nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-ticker.C:
		}
	}

	held, lost := context.WithCancelCause(ctx)
	stop := make(chan struct{})
	stopped := make(chan struct{})
	go r.renew(held, lost, redisKey, token, stop, stopped)

	var once sync.Once
	return held, func() {
		once.Do(func() {
			close(stop)
			<-stopped
			lost(nil)
			// Release even if the request context is already cancelled.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			// On failure the TTL frees the key.
			_ = releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err()
		})
	}, nil
}

// renew keeps the lock alive until stop is closed. The held context is
// cancelled with ErrLost when the token is gone, or when no renewal has been
// confirmed for a full TTL.
func (r *Redis) renew(held context.Context, lost context.CancelCauseFunc, redisKey, token string, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	interval := r.ttl / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	confirmed := time.Now()
	for {
		select {
		case <-stop:
			return
		case <-held.Done():
			return
		case <-ticker.C:
		}

		callCtx, cancel := context.WithTimeout(context.WithoutCancel(held), interval)
		n, err := renewScript.Run(callCtx, r.client, []string{redisKey}, token, r.ttl.Milliseconds()).Int()
		cancel()

		switch {
		case err == nil && n == 1:
			confirmed = time.Now()
		case err == nil:
			lost(ErrLost)
			return
		case time.Since(confirmed) >= r.ttl:
			lost(fmt.Errorf("%w: %v", ErrLost, err))
			return
		}
	}
}
