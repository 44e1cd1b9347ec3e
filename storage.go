// Package cachestorage implements the response cache storage engine of
// an HTTP client: it decides how a captured response is stored,
// retrieved and atomically updated across concurrent callers, against
// pluggable key/value backends with varying atomicity guarantees.
//
// Whether a response is cacheable, how conditional requests are built,
// and when revalidation happens are the caller's business; this package
// only provides the storage contract plus the pure helpers the caller
// needs (key hashing, Cache-Control parsing, backoff scheduling live in
// their own packages).
package cachestorage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/always-cache/cache-storage/pkg/locking"
	"github.com/always-cache/cache-storage/pkg/metrics"
)

// Serializer converts entries to and from the opaque byte form a
// backend stores. Deserialize must fail fast on malformed input rather
// than return a partially populated entry.
type Serializer interface {
	Serialize(entry *Entry) ([]byte, error)
	Deserialize(b []byte) (*Entry, error)
}

// Hasher maps a logical cache key to a backend-safe storage key of
// bounded length. Implementations must be deterministic and pure.
type Hasher interface {
	Hash(key string) string
}

// UpdateFunc produces the entry to store in place of the existing one.
// It is called with the most recently observed entry, or nil if none
// exists, and may be called more than once if the write loses a race.
type UpdateFunc func(existing *Entry) (*Entry, error)

// Storage is the cache storage engine. All methods are safe for
// concurrent use; none of them spawn goroutines, and all of them may
// block on backend I/O.
type Storage struct {
	backend    Backend
	cas        CASBackend
	bulk       BulkBackend
	serializer Serializer
	hasher     Hasher

	maxUpdateRetries int
	maxObjectSize    int64

	// updates against non-CAS backends are serialized per storage key
	locks locking.Group

	// Metrics, if set, records backend operation latencies and CAS
	// conflict counts. Set it before the first operation.
	Metrics *metrics.LatencyTracker

	log zerolog.Logger
}

// New creates a storage engine on top of the given backend. The CAS and
// bulk capabilities of the backend are discovered through type
// assertion; backends without CAS get per-key in-process locking for
// Update, which is only safe when every writer shares this process.
func New(backend Backend, serializer Serializer, hasher Hasher, config Config) *Storage {
	s := &Storage{
		backend:          backend,
		serializer:       serializer,
		hasher:           hasher,
		maxUpdateRetries: config.MaxUpdateRetries,
		maxObjectSize:    config.MaxObjectSizeBytes,
		locks:            locking.NewKeyLock(),
		log:              log.With().Str("component", "cache-storage").Logger(),
	}
	if cas, ok := backend.(CASBackend); ok {
		s.cas = cas
	}
	if bulk, ok := backend.(BulkBackend); ok {
		s.bulk = bulk
	}
	return s
}

// Get returns the entry stored under the logical key, or nil if there
// is none. A missing entry is a normal result, not an error; an error
// means the backend could not be consulted or the stored blob is
// corrupt, and guarantees nothing about absence.
func (s *Storage) Get(ctx context.Context, key string) (*Entry, error) {
	storageKey := s.hasher.Hash(key)
	b, ok, err := s.backendGet(ctx, storageKey)
	if err != nil {
		return nil, &IOError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		return nil, nil
	}
	entry, err := s.serializer.Deserialize(b)
	if err != nil {
		return nil, &MalformedEntryError{Key: key, Err: err}
	}
	return entry, nil
}

// Put unconditionally stores the entry under the logical key, replacing
// any previous value. Concurrent writers are safe; the last one wins.
func (s *Storage) Put(ctx context.Context, key string, entry *Entry) error {
	storageKey := s.hasher.Hash(key)
	b, err := s.serializer.Serialize(entry)
	if err != nil {
		return err
	}
	s.checkSize(key, b)
	if err := s.backendPut(ctx, storageKey, b); err != nil {
		return &IOError{Op: "put", Key: key, Err: err}
	}
	return nil
}

// Remove deletes the entry stored under the logical key. Removing a
// missing entry is not an error.
func (s *Storage) Remove(ctx context.Context, key string) error {
	storageKey := s.hasher.Hash(key)
	start := time.Now()
	err := s.backend.Delete(ctx, storageKey)
	s.record("delete", start)
	if err != nil {
		return &IOError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Update atomically replaces the entry stored under the logical key
// with the one produced by fn. fn sees the most recently observed entry
// (nil if absent) and is re-invoked after a fresh read whenever another
// writer got in between, up to MaxUpdateRetries extra attempts. When
// the budget runs out the returned error matches ErrUpdateContention.
//
// If no entry exists at read time the produced entry is written
// unconditionally. Two writers that both observe "absent" can therefore
// still clobber each other; the last one silently wins.
func (s *Storage) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if s.cas == nil {
		storageKey := s.hasher.Hash(key)
		return s.locks.Do(storageKey, func() error {
			return s.updateOnce(ctx, key, storageKey, fn)
		})
	}
	return s.updateCAS(ctx, key, fn)
}

func (s *Storage) updateCAS(ctx context.Context, key string, fn UpdateFunc) error {
	storageKey := s.hasher.Hash(key)
	for attempt := 0; ; attempt++ {
		start := time.Now()
		b, ok, token, err := s.cas.GetWithToken(ctx, storageKey)
		s.record("get", start)
		if err != nil {
			return &IOError{Op: "get", Key: key, Err: err}
		}
		var existing *Entry
		if ok {
			existing, err = s.serializer.Deserialize(b)
			if err != nil {
				return &MalformedEntryError{Key: key, Err: err}
			}
		}
		updated, err := fn(existing)
		if err != nil {
			return err
		}
		nb, err := s.serializer.Serialize(clampTimes(existing, updated))
		if err != nil {
			return err
		}
		s.checkSize(key, nb)
		if !ok {
			// no prior entry, no token to compare against
			if err := s.backendPut(ctx, storageKey, nb); err != nil {
				return &IOError{Op: "put", Key: key, Err: err}
			}
			return nil
		}
		start = time.Now()
		swapped, err := s.cas.CompareAndSwap(ctx, storageKey, token, nb)
		s.record("cas", start)
		if err != nil {
			return &IOError{Op: "cas", Key: key, Err: err}
		}
		if swapped {
			return nil
		}
		if s.Metrics != nil {
			s.Metrics.Incr("cas.conflict")
		}
		if attempt >= s.maxUpdateRetries {
			return fmt.Errorf("%w: key %q still contended after %d attempts",
				ErrUpdateContention, key, attempt+1)
		}
		s.log.Debug().Str("key", key).Int("attempt", attempt+1).
			Msg("Lost CAS race, re-reading entry")
	}
}

// updateOnce is the read-modify-write cycle used under a per-key lock
// when the backend cannot do conditional writes.
func (s *Storage) updateOnce(ctx context.Context, key, storageKey string, fn UpdateFunc) error {
	b, ok, err := s.backendGet(ctx, storageKey)
	if err != nil {
		return &IOError{Op: "get", Key: key, Err: err}
	}
	var existing *Entry
	if ok {
		existing, err = s.serializer.Deserialize(b)
		if err != nil {
			return &MalformedEntryError{Key: key, Err: err}
		}
	}
	updated, err := fn(existing)
	if err != nil {
		return err
	}
	nb, err := s.serializer.Serialize(clampTimes(existing, updated))
	if err != nil {
		return err
	}
	s.checkSize(key, nb)
	if err := s.backendPut(ctx, storageKey, nb); err != nil {
		return &IOError{Op: "put", Key: key, Err: err}
	}
	return nil
}

// BulkGet returns the stored entries for the given logical keys. Keys
// with no entry are omitted from the result. Backends with a batched
// read primitive serve this in one round-trip; others are read one key
// at a time.
func (s *Storage) BulkGet(ctx context.Context, keys []string) (map[string]*Entry, error) {
	entries := make(map[string]*Entry, len(keys))
	if s.bulk == nil {
		for _, key := range keys {
			entry, err := s.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if entry != nil {
				entries[key] = entry
			}
		}
		return entries, nil
	}
	logicalKeys := make(map[string]string, len(keys))
	storageKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		storageKey := s.hasher.Hash(key)
		logicalKeys[storageKey] = key
		storageKeys = append(storageKeys, storageKey)
	}
	start := time.Now()
	blobs, err := s.bulk.GetMulti(ctx, storageKeys)
	s.record("getmulti", start)
	if err != nil {
		return nil, &IOError{Op: "getmulti", Key: fmt.Sprintf("%d keys", len(keys)), Err: err}
	}
	for storageKey, b := range blobs {
		key, ok := logicalKeys[storageKey]
		if !ok {
			continue
		}
		entry, err := s.serializer.Deserialize(b)
		if err != nil {
			return nil, &MalformedEntryError{Key: key, Err: err}
		}
		entries[key] = entry
	}
	return entries, nil
}

func (s *Storage) backendGet(ctx context.Context, storageKey string) ([]byte, bool, error) {
	start := time.Now()
	b, ok, err := s.backend.Get(ctx, storageKey)
	s.record("get", start)
	return b, ok, err
}

func (s *Storage) backendPut(ctx context.Context, storageKey string, b []byte) error {
	start := time.Now()
	err := s.backend.Put(ctx, storageKey, b)
	s.record("put", start)
	return err
}

func (s *Storage) record(op string, start time.Time) {
	if s.Metrics != nil {
		s.Metrics.Record(op, time.Since(start))
	}
}

// checkSize implements the advisory object size ceiling: oversized
// entries are logged and stored anyway, since backends enforce their
// own hard limits.
func (s *Storage) checkSize(key string, b []byte) {
	if s.maxObjectSize > 0 && int64(len(b)) > s.maxObjectSize {
		s.log.Warn().Str("key", key).Int("size", len(b)).
			Int64("max", s.maxObjectSize).
			Msg("Serialized entry exceeds advisory size limit")
	}
}

// clampTimes keeps an entry's timestamps monotonic across updates: a
// revalidation must never produce an entry older than the one it
// replaces. The updated entry is not mutated; a copy is returned when
// clamping applies.
func clampTimes(existing, updated *Entry) *Entry {
	if existing == nil || updated == nil {
		return updated
	}
	if !updated.ResponseTime.Before(existing.ResponseTime) {
		return updated
	}
	clone := *updated
	clone.ResponseTime = existing.ResponseTime
	if clone.RequestTime.Before(existing.RequestTime) {
		clone.RequestTime = existing.RequestTime
	}
	return &clone
}
