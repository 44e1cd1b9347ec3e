package cachestorage

import (
	"context"
	"sync"
)

type memoryEntry struct {
	bytes   []byte
	version uint64
}

// MemoryBackend is an in-process Backend with full CAS and bulk
// support, suitable for single-process clients and for tests. Values
// are versioned; the version serves as the CAS token. Versions come
// from one backend-wide counter, never from a per-key count, so a
// token issued before a delete can never match a recreated entry.
type MemoryBackend struct {
	mutex *sync.RWMutex
	seq   *uint64
	db    map[string]memoryEntry
}

func NewMemoryBackend() MemoryBackend {
	return MemoryBackend{
		mutex: &sync.RWMutex{},
		seq:   new(uint64),
		db:    make(map[string]memoryEntry),
	}
}

func (m MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	entry, ok := m.db[key]
	if !ok {
		return nil, false, nil
	}
	return entry.bytes, true, nil
}

func (m MemoryBackend) Put(ctx context.Context, key string, b []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	*m.seq++
	m.db[key] = memoryEntry{bytes: b, version: *m.seq}
	return nil
}

func (m MemoryBackend) Delete(ctx context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.db, key)
	return nil
}

func (m MemoryBackend) GetWithToken(ctx context.Context, key string) ([]byte, bool, CASToken, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	entry, ok := m.db[key]
	if !ok {
		return nil, false, nil, nil
	}
	return entry.bytes, true, entry.version, nil
}

func (m MemoryBackend) CompareAndSwap(ctx context.Context, key string, token CASToken, b []byte) (bool, error) {
	version, ok := token.(uint64)
	if !ok {
		return false, errBadCASToken
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	entry, ok := m.db[key]
	if !ok || entry.version != version {
		return false, nil
	}
	*m.seq++
	m.db[key] = memoryEntry{bytes: b, version: *m.seq}
	return true, nil
}

func (m MemoryBackend) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	found := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if entry, ok := m.db[key]; ok {
			found[key] = entry.bytes
		}
	}
	return found, nil
}
