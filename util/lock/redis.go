package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript deletes the key only while it still carries our token, so an
// expired lock taken over by someone else is left alone.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process talking to the same server.
// Keys expire after ttl so a crashed holder cannot block forever.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

type RedisOption func(*Redis)

func WithPrefix(p string) RedisOption {
	return func(r *Redis) { r.prefix = strings.TrimSpace(p) }
}

func WithTTL(d time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = d }
}

func WithRetry(d time.Duration) RedisOption {
	return func(r *Redis) { r.retry = d }
}

func NewRedis(client *redis.Client, opts ...RedisOption) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis locker requires a client")
	}
	r := &Redis{
		client: client,
		prefix: "bookrental:lock",
		ttl:    30 * time.Second,
		retry:  25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.ttl <= 0 || r.retry <= 0 {
		return nil, errors.New("redis locker requires positive ttl and retry")
	}
	return r, nil
}

func (r *Redis) Lock(ctx context.Context, keys ...string) (func(), error) {
	return acquireAll(keys, func(k string) (func(), error) { return r.take(ctx, k) })
}

func (r *Redis) take(ctx context.Context, key string) (func(), error) {
	redisKey := r.prefix + ":" + key
	token := uuid.NewString()

	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
		case <-t.C:
		}
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			break
		}
		t.Reset(r.retry)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release must run even when the request context is gone.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = unlockScript.Run(ctx, r.client, []string{redisKey}, token).Err()
		})
	}, nil
}
