// Package locking provides mutual exclusion over sets of string keys.
// The storage engine uses it to serialize updates against backends that
// have no compare-and-swap primitive of their own.
package locking

import "sync"

// Group runs functions with mutual exclusion per key. Functions for
// distinct keys may run concurrently.
type Group interface {
	// Do runs fn while holding the lock for key.
	Do(key string, fn func() error) error
}

// KeyLock is a Group backed by in-memory mutexes, one per key in use.
// Entries are reference-counted and dropped once the last holder
// leaves, so the map stays bounded by the number of keys in flight.
// It only provides exclusion within a single process; concurrent
// processes sharing a backend are not serialized by it.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyLock() *KeyLock {
	return &KeyLock{
		locks: make(map[string]*keyLockEntry),
	}
}

func (l *KeyLock) Do(key string, fn func() error) error {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyLockEntry{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	err := fn()
	entry.mu.Unlock()

	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
	return err
}
