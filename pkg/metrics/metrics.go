// Package metrics tracks backend operation latencies and event counts
// for the cache storage engine. Latency quantiles are estimated with
// DDSketch so they stay cheap to record under concurrency.
package metrics

import (
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
)

// LatencyTracker records per-operation latency distributions and named
// event counters. The zero value is not usable; use NewLatencyTracker.
type LatencyTracker struct {
	mu               sync.Mutex
	sketches         map[string]*ddsketch.DDSketch
	counters         map[string]int64
	relativeAccuracy float64
}

// NewLatencyTracker creates a tracker. relativeAccuracy determines the
// accuracy of quantile estimates (e.g. 0.01 for 1%).
func NewLatencyTracker(relativeAccuracy float64) *LatencyTracker {
	return &LatencyTracker{
		sketches:         make(map[string]*ddsketch.DDSketch),
		counters:         make(map[string]int64),
		relativeAccuracy: relativeAccuracy,
	}
}

// Record adds one observed duration for the given operation.
func (lt *LatencyTracker) Record(operation string, duration time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	sketch, ok := lt.sketches[operation]
	if !ok {
		var err error
		sketch, err = ddsketch.NewDefaultDDSketch(lt.relativeAccuracy)
		if err != nil {
			return
		}
		lt.sketches[operation] = sketch
	}
	// recorded in milliseconds
	sketch.Add(float64(duration.Microseconds()) / 1000.0)
}

// Incr bumps a named event counter, e.g. CAS conflicts.
func (lt *LatencyTracker) Incr(counter string) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.counters[counter]++
}

// Count returns the current value of a named event counter.
func (lt *LatencyTracker) Count(counter string) int64 {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.counters[counter]
}

// Quantile returns the estimated latency quantile in milliseconds for
// the given operation. The boolean is false if nothing was recorded.
func (lt *LatencyTracker) Quantile(operation string, q float64) (float64, bool) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	sketch, ok := lt.sketches[operation]
	if !ok {
		return 0, false
	}
	v, err := sketch.GetValueAtQuantile(q)
	if err != nil {
		return 0, false
	}
	return v, true
}
