// Package failuretracker counts consecutive failures per identifier
// (typically a route or host) for backoff scheduling. Counters for
// unrelated identifiers never contend on a shared lock.
package failuretracker

import (
	"sync"

	"go.uber.org/atomic"
)

// Tracker is a concurrent map from identifier to attempt count.
// Counts are created lazily on first increment and removed entirely on
// reset, so identifiers no longer in use hold no memory.
type Tracker struct {
	counts sync.Map // string -> *atomic.Int64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Count returns the current count for id, 0 if never recorded.
func (t *Tracker) Count(id string) int {
	if v, ok := t.counts.Load(id); ok {
		return int(v.(*atomic.Int64).Load())
	}
	return 0
}

// Increment bumps the count for id and returns the new value. Two
// goroutines racing on a brand-new id both land their increment:
// LoadOrStore hands them the same counter.
func (t *Tracker) Increment(id string) int {
	v, _ := t.counts.LoadOrStore(id, atomic.NewInt64(0))
	return int(v.(*atomic.Int64).Inc())
}

// Reset removes the counter for id entirely.
func (t *Tracker) Reset(id string) {
	t.counts.Delete(id)
}
