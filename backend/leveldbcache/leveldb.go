// Package leveldbcache stores serialized cache entries in an embedded
// LevelDB database. LevelDB has no conditional-write primitive, so this
// backend offers plain reads and writes only; the storage engine
// serializes updates with its per-key lock group, which is sufficient
// because an embedded database has no writers outside this process.
package leveldbcache

import (
	"context"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
)

type Cache struct {
	db *leveldb.DB
}

// Open opens (and if needed creates) the database directory at path.
func Open(path string) (*Cache, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, b []byte) error {
	return c.db.Put([]byte(key), b, nil)
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.db.Delete([]byte(key), nil)
}

// GetMulti reads all keys from one snapshot so the result is a
// consistent point-in-time view.
func (c *Cache) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	snapshot, err := c.db.GetSnapshot()
	if err != nil {
		return nil, err
	}
	defer snapshot.Release()
	found := make(map[string][]byte, len(keys))
	for _, key := range keys {
		b, err := snapshot.Get([]byte(key), nil)
		if errors.Is(err, leveldb.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found[key] = b
	}
	return found, nil
}
