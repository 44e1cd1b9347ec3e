package storagekey

import (
	"strings"
	"testing"
)

func TestHashDeterministic(t *testing.T) {
	hasher := New()
	key := "GET:https://example.com/path\tAccept-Encoding: gzip"
	if hasher.Hash(key) != hasher.Hash(key) {
		t.Fatal("Same key hashed to different values")
	}
}

func TestHashFixedLength(t *testing.T) {
	hasher := New()
	short := hasher.Hash("k")
	long := hasher.Hash(strings.Repeat("very-long-logical-key/", 500))
	if len(short) != 64 || len(long) != 64 {
		t.Fatalf("Hash lengths are %d and %d", len(short), len(long))
	}
	if short == long {
		t.Fatal("Distinct keys hashed to same value")
	}
}
