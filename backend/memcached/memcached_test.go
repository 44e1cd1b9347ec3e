package memcached

import (
	"context"
	"testing"

	cachestorage "github.com/always-cache/cache-storage"
)

var (
	_ cachestorage.CASBackend  = (*Cache)(nil)
	_ cachestorage.BulkBackend = (*Cache)(nil)
)

func TestForeignTokenRejected(t *testing.T) {
	cache := &Cache{}
	if _, err := cache.CompareAndSwap(context.Background(), "k", "not an item", []byte("v")); err == nil {
		t.Fatal("Foreign CAS token accepted")
	}
}
