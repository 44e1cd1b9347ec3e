package backoff

import (
	"testing"
	"time"
)

func TestZeroFailuresZeroDelay(t *testing.T) {
	if d := NewExponential().Delay(0); d != 0 {
		t.Fatalf("Delay(0) is %v", d)
	}
}

func TestFirstFailureInitialExpiry(t *testing.T) {
	if d := NewExponential().Delay(1); d != DefaultInitialExpiry {
		t.Fatalf("Delay(1) is %v", d)
	}
}

func TestGrowthAndCap(t *testing.T) {
	strategy := NewExponential()
	if d := strategy.Delay(2); d != 60*time.Second {
		t.Fatalf("Delay(2) is %v", d)
	}
	previous := time.Duration(-1)
	for failures := 0; failures < 100; failures++ {
		d := strategy.Delay(failures)
		if d < previous {
			t.Fatalf("Delay(%d)=%v below Delay(%d)=%v", failures, d, failures-1, previous)
		}
		if d > DefaultMaxExpiry {
			t.Fatalf("Delay(%d)=%v above max", failures, d)
		}
		previous = d
	}
	if d := strategy.Delay(99); d != DefaultMaxExpiry {
		t.Fatalf("Large failure count not capped: %v", d)
	}
}

func TestCustomParameters(t *testing.T) {
	strategy := Exponential{
		BackOffRate:   2,
		InitialExpiry: time.Second,
		MaxExpiry:     5 * time.Second,
	}
	if d := strategy.Delay(1); d != time.Second {
		t.Fatalf("Delay(1) is %v", d)
	}
	if d := strategy.Delay(2); d != 2*time.Second {
		t.Fatalf("Delay(2) is %v", d)
	}
	if d := strategy.Delay(10); d != 5*time.Second {
		t.Fatalf("Delay(10) is %v", d)
	}
}
