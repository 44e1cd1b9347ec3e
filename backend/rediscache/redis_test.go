package rediscache

import (
	"context"
	"testing"
	"time"

	cachestorage "github.com/always-cache/cache-storage"
)

var (
	_ cachestorage.CASBackend  = (*Cache)(nil)
	_ cachestorage.BulkBackend = (*Cache)(nil)
)

func TestForeignTokenRejected(t *testing.T) {
	cache := New(nil, time.Minute)
	// a token from some other backend must fail before any I/O happens
	if _, err := cache.CompareAndSwap(context.Background(), "k", int64(7), []byte("v")); err == nil {
		t.Fatal("Foreign CAS token accepted")
	}
}
