package failuretracker

import (
	"sync"
	"testing"
)

func TestCountNeverRecorded(t *testing.T) {
	if c := NewTracker().Count("nope"); c != 0 {
		t.Fatalf("Count is %d", c)
	}
}

func TestIncrementAndReset(t *testing.T) {
	tracker := NewTracker()
	if c := tracker.Increment("host-a"); c != 1 {
		t.Fatalf("First increment returned %d", c)
	}
	if c := tracker.Increment("host-a"); c != 2 {
		t.Fatalf("Second increment returned %d", c)
	}
	if c := tracker.Count("host-b"); c != 0 {
		t.Fatalf("Unrelated id has count %d", c)
	}
	tracker.Reset("host-a")
	if c := tracker.Count("host-a"); c != 0 {
		t.Fatalf("Count after reset is %d", c)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	const n = 100
	tracker := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Increment("host-a")
		}()
	}
	wg.Wait()
	if c := tracker.Count("host-a"); c != n {
		t.Fatalf("Count is %d, expected %d", c, n)
	}
}
