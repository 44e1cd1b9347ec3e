// Package fscache stores serialized cache entries as files, one per
// storage key, under a root directory. Writes go through a temp file
// and an atomic rename so readers never observe a torn entry, and a
// flock per key serializes writers across processes. There is no CAS
// primitive; the engine's per-key lock group serializes updates within
// a process, and the cross-process create race documented for the
// storage engine applies here too.
package fscache

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

type Cache struct {
	dir string
}

// Open creates the cache directory if needed.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// storage keys are fixed-length hex digests, safe as file names
func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key)
}

func (c *Cache) lockPath(key string) string {
	return c.path(key) + ".lock"
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := os.ReadFile(c.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, b []byte) error {
	fileLock := flock.New(c.lockPath(key))
	if err := fileLock.Lock(); err != nil {
		return err
	}
	defer fileLock.Unlock()

	tmp, err := os.CreateTemp(c.dir, key+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path(key))
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	fileLock := flock.New(c.lockPath(key))
	if err := fileLock.Lock(); err != nil {
		return err
	}
	defer fileLock.Unlock()

	err := os.Remove(c.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	// Unlink the lock file while still holding the flock so deleted
	// keys do not accumulate stray .lock files. A writer racing this
	// unlink may take a fresh lock on a new inode; that only weakens
	// writer-writer exclusion for the racing pair, and entries stay
	// whole either way because writes land via atomic rename.
	if err := os.Remove(c.lockPath(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
