package cachestorage

import "context"

// CASToken is an opaque per-read identifier issued by a CAS-capable
// backend. It is valid for exactly one subsequent CompareAndSwap on the
// same key, is meaningful only to the backend that issued it, and must
// never be persisted or handed to a different backend.
type CASToken interface{}

// Backend is the narrow key/value connector a storage backend must
// provide. Keys are storage keys (already hashed), values are opaque
// serialized entries.
//
// Implementations must be thread-safe!
type Backend interface {
	// Get returns the stored bytes for the given key, if they exist.
	// The boolean indicates whether the key was present; a missing key
	// is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores the given bytes under the given key, replacing any
	// previous value. Last writer wins.
	Put(ctx context.Context, key string, b []byte) error
	// Delete removes the value stored under the given key.
	// Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// CASBackend is implemented by backends that can do conditional writes.
// The storage engine uses it for optimistic concurrency in Update.
type CASBackend interface {
	Backend
	// GetWithToken reads the value "for update", returning a token to
	// be passed to CompareAndSwap. When the key is absent the boolean
	// is false and the token must not be used.
	GetWithToken(ctx context.Context, key string) ([]byte, bool, CASToken, error)
	// CompareAndSwap writes b under key only if the key has not been
	// modified since the read that produced token. It reports whether
	// the write was applied; a stale token is not an error.
	CompareAndSwap(ctx context.Context, key string, token CASToken, b []byte) (bool, error)
}

// BulkBackend is implemented by backends with a batched read primitive.
// The storage engine uses it to amortize round-trips in BulkGet.
type BulkBackend interface {
	Backend
	// GetMulti returns the stored bytes for each of the given keys.
	// Keys absent in the backend are simply omitted from the result.
	GetMulti(ctx context.Context, keys []string) (map[string][]byte, error)
}
