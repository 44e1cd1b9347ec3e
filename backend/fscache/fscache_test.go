package fscache

import (
	"context"
	"os"
	"sync"
	"testing"

	cachestorage "github.com/always-cache/cache-storage"
)

var _ cachestorage.Backend = (*Cache)(nil)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return cache
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)
	key := "0123456789abcdef0123456789abcdef"

	if _, ok, err := cache.Get(ctx, key); ok || err != nil {
		t.Fatalf("Fresh dir get: %v %v", ok, err)
	}
	if err := cache.Put(ctx, key, []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	b, ok, err := cache.Get(ctx, key)
	if err != nil || !ok || string(b) != "v1" {
		t.Fatalf("Get: %q %v %v", b, ok, err)
	}
	if err := cache.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, key); ok {
		t.Fatal("Key present after delete")
	}
	if err := cache.Delete(ctx, key); err != nil {
		t.Fatalf("Delete of missing key: %v", err)
	}
}

func TestDeleteRemovesLockFile(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)
	key := "0123456789abcdef0123456789abcdef"

	if err := cache.Put(ctx, key, []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(cache.lockPath(key)); err != nil {
		t.Fatalf("Lock file missing after put: %v", err)
	}
	if err := cache.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(cache.lockPath(key)); !os.IsNotExist(err) {
		t.Fatalf("Lock file left behind after delete: %v", err)
	}
	// a fresh write after the cleanup must still work
	if err := cache.Put(ctx, key, []byte("v2")); err != nil {
		t.Fatalf("Put after delete: %v", err)
	}
}

func TestConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)
	key := "shared"
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := cache.Put(ctx, key, []byte("value")); err != nil {
				t.Errorf("Put: %v", err)
			}
		}()
	}
	wg.Wait()
	// whoever won, the entry must be whole
	b, ok, err := cache.Get(ctx, key)
	if err != nil || !ok || string(b) != "value" {
		t.Fatalf("Get after concurrent puts: %q %v %v", b, ok, err)
	}
}
