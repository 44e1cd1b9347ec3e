// Package memcached stores serialized cache entries in memcached,
// which issues a native CAS identifier with every read. The fetched
// item doubles as the CAS token. memcached enforces its own limits (250
// byte keys, 1 MiB values by default) and runs its own LRU eviction, so
// the engine's advisory object size setting is ignored here; key length
// is already handled by the hashing scheme upstream.
//
// Context deadlines are not honored per call: the gomemcache client
// applies its own configurable Timeout to every round-trip, and a
// timeout surfaces as an ordinary I/O error.
package memcached

import (
	"context"
	"errors"

	"github.com/bradfitz/gomemcache/memcache"

	cachestorage "github.com/always-cache/cache-storage"
)

type Cache struct {
	client *memcache.Client
}

// New connects to the given memcached servers.
func New(addrs ...string) *Cache {
	return &Cache{client: memcache.New(addrs...)}
}

// NewFromClient wraps an already configured client.
func NewFromClient(client *memcache.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	item, err := c.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return item.Value, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, b []byte) error {
	return c.client.Set(&memcache.Item{Key: key, Value: b})
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.client.Delete(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}

func (c *Cache) GetWithToken(ctx context.Context, key string) ([]byte, bool, cachestorage.CASToken, error) {
	item, err := c.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil, nil
	}
	if err != nil {
		return nil, false, nil, err
	}
	// the item carries the server's CAS id; it is the token
	return item.Value, true, item, nil
}

func (c *Cache) CompareAndSwap(ctx context.Context, key string, token cachestorage.CASToken, b []byte) (bool, error) {
	item, ok := token.(*memcache.Item)
	if !ok {
		return false, errors.New("CAS token not issued by memcached cache")
	}
	item.Value = b
	err := c.client.CompareAndSwap(item)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, memcache.ErrCASConflict), errors.Is(err, memcache.ErrNotStored):
		return false, nil
	case errors.Is(err, memcache.ErrCacheMiss):
		// evicted or deleted since the read; the token is stale
		return false, nil
	default:
		return false, err
	}
}

func (c *Cache) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	items, err := c.client.GetMulti(keys)
	if err != nil {
		return nil, err
	}
	found := make(map[string][]byte, len(items))
	for key, item := range items {
		found[key] = item.Value
	}
	return found, nil
}
