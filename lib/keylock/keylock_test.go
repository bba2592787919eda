package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/kLock/lib/registry"
)

func TestNewWithConfigDefaults(t *testing.T) {
	mgr := NewWithConfig(Config{})

	if mgr.registry == nil {
		t.Fatal("expected a registry to be created")
	}
	if mgr.timeout != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, mgr.timeout)
	}
	if mgr.retryBase != DefaultRetryBase {
		t.Errorf("expected default retry base %v, got %v", DefaultRetryBase, mgr.retryBase)
	}
	if mgr.backoffCap != DefaultBackoffCap {
		t.Errorf("expected default backoff cap %v, got %v", DefaultBackoffCap, mgr.backoffCap)
	}
}

func TestNewWithConfigCustom(t *testing.T) {
	reg := registry.NewMutexMapRegistry()
	mgr := NewWithConfig(Config{
		Registry:   reg,
		Timeout:    time.Minute,
		RetryBase:  time.Millisecond,
		BackoffCap: 100 * time.Millisecond,
	})

	if mgr.Registry() != reg {
		t.Error("expected the supplied registry to be used")
	}
	if mgr.timeout != time.Minute || mgr.retryBase != time.Millisecond || mgr.backoffCap != 100*time.Millisecond {
		t.Errorf("config values not applied: %v %v %v", mgr.timeout, mgr.retryBase, mgr.backoffCap)
	}
}

func TestNextTokenUnique(t *testing.T) {
	const goroutines = 16
	const perGoroutine = 1000

	var mu sync.Mutex
	seen := make(map[uint64]struct{}, goroutines*perGoroutine)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			local := make([]uint64, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				local = append(local, nextToken())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, token := range local {
				if _, dup := seen[token]; dup {
					t.Errorf("token %d minted twice", token)
				}
				seen[token] = struct{}{}
			}
		}()
	}
	wg.Wait()
}

// TestFreshTokenPerAcquisition verifies that every logical acquisition
// call mints its own token, so a reacquired key has a new holder identity.
func TestFreshTokenPerAcquisition(t *testing.T) {
	mgr := New()

	guard1, ok := mgr.TryLockNow("key")
	if !ok {
		t.Fatal("expected to acquire")
	}
	guard1.Release()

	guard2, ok := mgr.TryLockNow("key")
	if !ok {
		t.Fatal("expected to reacquire")
	}
	defer guard2.Release()

	if guard1.token == guard2.token {
		t.Errorf("expected distinct tokens, both acquisitions got %d", guard1.token)
	}
}
