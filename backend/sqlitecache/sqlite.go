// Package sqlitecache stores serialized cache entries in a SQLite
// database. Every row carries a version number that serves as the CAS
// token, so conditional writes are a single guarded UPDATE. Versions
// come from a database-wide sequence that survives deletes, so a token
// issued before a delete can never match a recreated row.
package sqlitecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/glebarez/go-sqlite"

	cachestorage "github.com/always-cache/cache-storage"
)

type Cache struct {
	db *sql.DB
}

// Open opens (and if needed creates) the cache database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		bytes BLOB NOT NULL)`)
	if err != nil {
		db.Close()
		return nil, err
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS cache_seq (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		value INTEGER NOT NULL)`)
	if err != nil {
		db.Close()
		return nil, err
	}
	_, err = db.Exec("INSERT OR IGNORE INTO cache_seq (id, value) VALUES (1, 0)")
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

// nextVersion advances the database-wide version sequence within tx.
func nextVersion(ctx context.Context, tx *sql.Tx) (int64, error) {
	if _, err := tx.ExecContext(ctx, "UPDATE cache_seq SET value = value + 1 WHERE id = 1"); err != nil {
		return 0, err
	}
	var version int64
	err := tx.QueryRowContext(ctx, "SELECT value FROM cache_seq WHERE id = 1").Scan(&version)
	return version, err
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var b []byte
	err := c.db.QueryRowContext(ctx,
		"SELECT bytes FROM cache WHERE key = ?", key).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, b []byte) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	version, err := nextVersion(ctx, tx)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO cache (key, version, bytes) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET bytes = excluded.bytes, version = excluded.version`,
		key, version, b)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ?", key)
	return err
}

func (c *Cache) GetWithToken(ctx context.Context, key string) ([]byte, bool, cachestorage.CASToken, error) {
	var b []byte
	var version int64
	err := c.db.QueryRowContext(ctx,
		"SELECT bytes, version FROM cache WHERE key = ?", key).Scan(&b, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil, nil
	}
	if err != nil {
		return nil, false, nil, err
	}
	return b, true, version, nil
}

func (c *Cache) CompareAndSwap(ctx context.Context, key string, token cachestorage.CASToken, b []byte) (bool, error) {
	version, ok := token.(int64)
	if !ok {
		return false, fmt.Errorf("CAS token %v not issued by sqlite cache", token)
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()
	newVersion, err := nextVersion(ctx, tx)
	if err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE cache SET bytes = ?, version = ? WHERE key = ? AND version = ?",
		b, newVersion, key, version)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (c *Cache) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]interface{}, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	rows, err := c.db.QueryContext(ctx,
		"SELECT key, bytes FROM cache WHERE key IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	found := make(map[string][]byte, len(keys))
	for rows.Next() {
		var key string
		var b []byte
		if err := rows.Scan(&key, &b); err != nil {
			return nil, err
		}
		found[key] = b
	}
	return found, rows.Err()
}
