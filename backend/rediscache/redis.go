// Package rediscache stores serialized cache entries in Redis. Redis
// has no per-read CAS token, so conditional writes compare by value: a
// token is the blob as read, and the swap is a Lua script that only
// writes when the current value still equals it. Entry eviction is left
// to Redis (TTL here, plus whatever maxmemory policy the server runs).
package rediscache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	cachestorage "github.com/always-cache/cache-storage"
)

// casScript writes ARGV[2] only if the current value equals ARGV[1].
// ARGV[3] is the TTL in milliseconds, 0 for none.
var casScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	if tonumber(ARGV[3]) > 0 then
		redis.call("set", KEYS[1], ARGV[2], "px", ARGV[3])
	else
		redis.call("set", KEYS[1], ARGV[2])
	end
	return 1
end
return 0
`)

type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New wraps an existing Redis client. ttl, when positive, is applied to
// every stored entry; the storage engine treats a TTL-expired key like
// any other missing key.
func New(client redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, b []byte) error {
	return c.client.Set(ctx, key, b, c.ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) GetWithToken(ctx context.Context, key string) ([]byte, bool, cachestorage.CASToken, error) {
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, nil, err
	}
	return b, true, b, nil
}

func (c *Cache) CompareAndSwap(ctx context.Context, key string, token cachestorage.CASToken, b []byte) (bool, error) {
	previous, ok := token.([]byte)
	if !ok {
		return false, errors.New("CAS token not issued by redis cache")
	}
	res, err := casScript.Run(ctx, c.client, []string{key},
		previous, b, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (c *Cache) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	found := make(map[string][]byte, len(keys))
	for i, value := range values {
		if s, ok := value.(string); ok {
			found[keys[i]] = []byte(s)
		}
	}
	return found, nil
}
