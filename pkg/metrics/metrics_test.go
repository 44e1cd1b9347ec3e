package metrics

import (
	"testing"
	"time"
)

func TestQuantile(t *testing.T) {
	tracker := NewLatencyTracker(0.01)
	for i := 1; i <= 100; i++ {
		tracker.Record("get", time.Duration(i)*time.Millisecond)
	}
	median, ok := tracker.Quantile("get", 0.5)
	if !ok {
		t.Fatal("No quantile for recorded operation")
	}
	if median < 40 || median > 60 {
		t.Fatalf("Median is %f ms", median)
	}
	if _, ok := tracker.Quantile("never", 0.5); ok {
		t.Fatal("Quantile for unrecorded operation")
	}
}

func TestCounters(t *testing.T) {
	tracker := NewLatencyTracker(0.01)
	if c := tracker.Count("cas.conflict"); c != 0 {
		t.Fatalf("Fresh counter is %d", c)
	}
	tracker.Incr("cas.conflict")
	tracker.Incr("cas.conflict")
	if c := tracker.Count("cas.conflict"); c != 2 {
		t.Fatalf("Counter is %d", c)
	}
}
