// Package revalidate schedules background revalidations of stale cache
// entries. It ties together the backoff strategy and the failure
// tracker: a key that keeps failing against the origin gets revalidated
// less and less often, and a key already being revalidated is not
// scheduled a second time.
package revalidate

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/always-cache/cache-storage/pkg/backoff"
	failuretracker "github.com/always-cache/cache-storage/pkg/failure-tracker"
)

// Scheduler runs caller-supplied revalidation callbacks after a delay
// derived from the identifier's consecutive failure count. It does not
// know how to revalidate; the callback does the origin round-trip and
// reports back through MarkSuccess or MarkFailure.
type Scheduler struct {
	strategy backoff.Strategy
	failures *failuretracker.Tracker

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewScheduler(strategy backoff.Strategy, failures *failuretracker.Tracker) *Scheduler {
	return &Scheduler{
		strategy: strategy,
		failures: failures,
		pending:  make(map[string]struct{}),
	}
}

// Schedule queues fn to run after the backoff delay for id. It reports
// whether fn was queued: a revalidation already in flight for the same
// id suppresses the new one.
func (s *Scheduler) Schedule(id string, fn func()) bool {
	s.mu.Lock()
	if _, inFlight := s.pending[id]; inFlight {
		s.mu.Unlock()
		return false
	}
	s.pending[id] = struct{}{}
	s.mu.Unlock()

	delay := s.strategy.Delay(s.failures.Count(id))
	log.Trace().Str("id", id).Dur("delay", delay).Msg("Scheduling revalidation")
	time.AfterFunc(delay, func() {
		defer func() {
			s.mu.Lock()
			delete(s.pending, id)
			s.mu.Unlock()
		}()
		fn()
	})
	return true
}

// MarkFailure records one more consecutive failure for id and returns
// the new count.
func (s *Scheduler) MarkFailure(id string) int {
	return s.failures.Increment(id)
}

// MarkSuccess clears the failure count for id.
func (s *Scheduler) MarkSuccess(id string) {
	s.failures.Reset(id)
}
