package locking

import (
	"sync"
	"testing"
)

func TestMutualExclusionPerKey(t *testing.T) {
	group := NewKeyLock()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			group.Do("k", func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	if counter != 100 {
		t.Fatalf("Counter is %d", counter)
	}
}

func TestLocksReleasedAfterUse(t *testing.T) {
	group := NewKeyLock()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		key := string(rune('a' + i%10))
		wg.Add(1)
		go func() {
			defer wg.Done()
			group.Do(key, func() error { return nil })
		}()
	}
	wg.Wait()
	group.mu.Lock()
	defer group.mu.Unlock()
	if len(group.locks) != 0 {
		t.Fatalf("%d lock entries left behind", len(group.locks))
	}
}

func TestDistinctKeysDoNotBlock(t *testing.T) {
	group := NewKeyLock()
	holding := make(chan struct{})
	release := make(chan struct{})
	go group.Do("a", func() error {
		close(holding)
		<-release
		return nil
	})
	<-holding
	// must not deadlock while "a" is held
	if err := group.Do("b", func() error { return nil }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	close(release)
}
