package cachestorage

import (
	"errors"
	"fmt"
)

// ErrUpdateContention is returned (wrapped) by Storage.Update when the
// CAS retry budget is exhausted without a successful write. It means
// "lost the race repeatedly", not "backend is down"; callers usually
// degrade to a cache miss.
var ErrUpdateContention = errors.New("cache update contention")

// errBadCASToken reports a token handed to a backend that did not issue
// it. Tokens are backend-private and single-use.
var errBadCASToken = errors.New("CAS token not issued by this backend")

// IOError wraps a transport, timeout or connectivity failure talking to
// the storage backend. It is never used for a missing key. The engine
// does not retry these internally; retry policy belongs to the caller.
type IOError struct {
	Op  string
	Key string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cache backend %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// MalformedEntryError reports a stored blob that could not be
// deserialized. A corrupt entry is a different fault than a missing one
// and is never masked as a cache miss.
type MalformedEntryError struct {
	Key string
	Err error
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("malformed cache entry %q: %v", e.Key, e.Err)
}

func (e *MalformedEntryError) Unwrap() error {
	return e.Err
}
