// Package storagekey maps logical cache keys to backend-safe storage
// keys. Logical keys embed request URIs and vary header values and can
// get arbitrarily long; several backends impose hard key-length
// ceilings (memcached caps keys at 250 bytes), so keys are reduced to a
// fixed-length digest before they reach a backend.
package storagekey

import (
	"crypto/sha256"
	"fmt"
)

// SHA256 hashes logical keys to 64-character lowercase hex digests.
// A cryptographic digest is required here, not a checksum: distinct
// logical keys colliding onto one storage key would silently serve the
// wrong response.
type SHA256 struct{}

func New() SHA256 {
	return SHA256{}
}

// Hash is deterministic and pure; it is safe to call from any number of
// goroutines without synchronization.
func (SHA256) Hash(key string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
