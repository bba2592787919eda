package testing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/kLock/lib/keylock"
	"github.com/ValentinKolb/kLock/lib/registry"
)

// RunLockSuite runs a comprehensive behavioral test suite for the
// keylock manager driven by the given registry engine.
func RunLockSuite(t *testing.T, name string, factory registry.RegistryFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("TryLockNow", func(t *testing.T) {
			testTryLockNow(t, factory)
		})

		t.Run("LockDefaultTimeout", func(t *testing.T) {
			testLockDefaultTimeout(t, factory)
		})

		t.Run("LockWithTimeout", func(t *testing.T) {
			testLockWithTimeout(t, factory)
		})

		t.Run("LockWithContext", func(t *testing.T) {
			testLockWithContext(t, factory)
		})

		t.Run("MutualExclusion", func(t *testing.T) {
			testMutualExclusion(t, factory)
		})

		t.Run("BackoffBoundaries", func(t *testing.T) {
			testBackoffBoundaries(t, factory)
		})

		t.Run("IdempotentRelease", func(t *testing.T) {
			testIdempotentRelease(t, factory)
		})

		t.Run("NonBlockingTry", func(t *testing.T) {
			testNonBlockingTry(t, factory)
		})

		t.Run("SharedRegistry", func(t *testing.T) {
			testSharedRegistry(t, factory)
		})

		t.Run("ReleaseUnblocksWaiter", func(t *testing.T) {
			testReleaseUnblocksWaiter(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// newManager builds a manager on a fresh registry from the factory
func newManager(factory registry.RegistryFactory, timeout, retryBase time.Duration) *keylock.Manager {
	return keylock.NewWithConfig(keylock.Config{
		Registry:  factory(),
		Timeout:   timeout,
		RetryBase: retryBase,
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testTryLockNow(t *testing.T, factory registry.RegistryFactory) {
	mgr := newManager(factory, 0, 0)
	key := "R1"

	guard1, ok := mgr.TryLockNow(key)
	if !ok {
		t.Fatal("expected first TryLockNow to acquire")
	}
	if guard1.Key() != key {
		t.Errorf("expected guard key %q, got %q", key, guard1.Key())
	}

	if _, ok := mgr.TryLockNow(key); ok {
		t.Fatal("expected second TryLockNow on held key to fail")
	}

	guard1.Release()

	guard3, ok := mgr.TryLockNow(key)
	if !ok {
		t.Fatal("expected TryLockNow after release to acquire")
	}
	guard3.Release()
}

func testLockDefaultTimeout(t *testing.T, factory registry.RegistryFactory) {
	mgr := newManager(factory, 100*time.Millisecond, 10*time.Millisecond)
	key := "test-key"

	guard1, ok := mgr.Lock(key)
	if !ok {
		t.Fatal("expected to acquire initial lock")
	}

	start := time.Now()
	_, ok = mgr.Lock(key)
	elapsed := time.Since(start)

	if ok {
		t.Fatal("expected second lock to time out")
	}
	if elapsed < 100*time.Millisecond {
		t.Errorf("timeout occurred too early: %v", elapsed)
	}

	guard1.Release()

	guard3, ok := mgr.LockWithTimeout(key, time.Second)
	if !ok {
		t.Fatal("expected to acquire after release")
	}
	guard3.Release()
}

func testLockWithTimeout(t *testing.T, factory registry.RegistryFactory) {
	mgr := newManager(factory, 0, 0)
	key := "R2"

	guard1, ok := mgr.Lock(key)
	if !ok {
		t.Fatal("expected to acquire initial lock")
	}
	defer guard1.Release()

	start := time.Now()
	_, ok = mgr.LockWithTimeout(key, 30*time.Millisecond)
	elapsed := time.Since(start)

	if ok {
		t.Fatal("expected timeout, not acquisition")
	}
	if elapsed < 30*time.Millisecond {
		t.Errorf("timeout returned too early: %v", elapsed)
	}
}

func testLockWithContext(t *testing.T, factory registry.RegistryFactory) {
	mgr := newManager(factory, 0, 10*time.Millisecond)
	key := "test-key"

	guard1, ok := mgr.LockWithContext(context.Background(), key)
	if !ok {
		t.Fatal("expected to acquire lock")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, ok = mgr.LockWithContext(ctx, key)
	elapsed := time.Since(start)

	if ok {
		t.Fatal("expected cancellation, not acquisition")
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("cancellation occurred too early: %v", elapsed)
	}
	// the wait must resolve within roughly one retry interval of the signal
	if elapsed > 250*time.Millisecond {
		t.Errorf("cancellation not responsive, took %v", elapsed)
	}

	guard1.Release()

	guard3, ok := mgr.LockWithContext(context.Background(), key)
	if !ok {
		t.Fatal("expected to acquire after release")
	}
	guard3.Release()
}

func testMutualExclusion(t *testing.T, factory registry.RegistryFactory) {
	mgr := newManager(factory, 5*time.Second, time.Millisecond)
	key := "contended-key"

	const goroutines = 24
	var active atomic.Int64
	var violations atomic.Int64
	var acquired atomic.Int64

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()

			var guard *keylock.Guard
			var ok bool

			// exercise all four acquisition modes
			switch id % 4 {
			case 0:
				guard, ok = mgr.Lock(key)
			case 1:
				guard, ok = mgr.LockWithTimeout(key, time.Second)
			case 2:
				guard, ok = mgr.LockWithContext(context.Background(), key)
			case 3:
				for !ok {
					guard, ok = mgr.TryLockNow(key)
					if !ok {
						time.Sleep(time.Millisecond)
					}
				}
			}
			if !ok {
				return
			}
			acquired.Add(1)

			if active.Add(1) != 1 {
				violations.Add(1)
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)

			guard.Release()
		}(g)
	}
	wg.Wait()

	if v := violations.Load(); v != 0 {
		t.Errorf("mutual exclusion violated %d times", v)
	}
	if a := acquired.Load(); a != goroutines {
		t.Errorf("expected all %d goroutines to acquire eventually, got %d", goroutines, a)
	}
}

// testBackoffBoundaries verifies the capped exponential retry schedule.
// The waiter attempts at 0ms, then retries at the boundaries 10, 30, 70,
// 150ms (base 10ms, doubling). The holder releases at 100ms, so the
// acquisition lands on the 150ms boundary. The next boundary would be
// 310ms, so any elapsed time in [150ms, 310ms) matches the schedule.
func testBackoffBoundaries(t *testing.T, factory registry.RegistryFactory) {
	mgr := newManager(factory, 5*time.Second, 10*time.Millisecond)
	key := "test-key"

	guard1, ok := mgr.Lock(key)
	if !ok {
		t.Fatal("expected to acquire initial lock")
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		guard1.Release()
	}()

	start := time.Now()
	guard2, ok := mgr.Lock(key)
	elapsed := time.Since(start)

	if !ok {
		t.Fatal("expected reacquire after release")
	}
	guard2.Release()

	if elapsed < 150*time.Millisecond || elapsed >= 310*time.Millisecond {
		t.Errorf("expected reacquire between 150ms and 310ms, got %v", elapsed)
	}
}

func testIdempotentRelease(t *testing.T, factory registry.RegistryFactory) {
	mgr := newManager(factory, 0, 0)
	key := "test-key"

	guard1, ok := mgr.TryLockNow(key)
	if !ok {
		t.Fatal("expected to acquire lock")
	}

	guard1.Release()
	guard1.Release() // second release must be a no-op

	// the key is now held by a new guard with a fresh token
	guard2, ok := mgr.TryLockNow(key)
	if !ok {
		t.Fatal("expected to acquire after release")
	}

	// a stale release must not evict the new holder
	guard1.Release()
	if _, ok := mgr.TryLockNow(key); ok {
		t.Fatal("stale release removed the new holder's entry")
	}

	guard2.Release()
	guard3, ok := mgr.TryLockNow(key)
	if !ok {
		t.Fatal("expected to acquire after new holder released")
	}
	guard3.Release()
}

func testNonBlockingTry(t *testing.T, factory registry.RegistryFactory) {
	mgr := newManager(factory, 0, 0)
	key := "test-key"

	guard1, ok := mgr.TryLockNow(key)
	if !ok {
		t.Fatal("expected to acquire lock")
	}
	defer guard1.Release()

	start := time.Now()
	_, ok = mgr.TryLockNow(key)
	elapsed := time.Since(start)

	if ok {
		t.Fatal("expected TryLockNow on held key to fail")
	}
	if elapsed > 20*time.Millisecond {
		t.Errorf("TryLockNow took %v, expected near-zero elapsed time", elapsed)
	}
}

func testSharedRegistry(t *testing.T, factory registry.RegistryFactory) {
	shared := factory()
	mgr1 := keylock.NewWithConfig(keylock.Config{Registry: shared})
	mgr2 := keylock.NewWithConfig(keylock.Config{Registry: shared})
	key := "shared-key"

	guard1, ok := mgr1.TryLockNow(key)
	if !ok {
		t.Fatal("expected to acquire lock via first manager")
	}

	if _, ok := mgr2.TryLockNow(key); ok {
		t.Fatal("expected lock to be visible through the shared registry")
	}

	guard1.Release()

	guard2, ok := mgr2.TryLockNow(key)
	if !ok {
		t.Fatal("expected to acquire via second manager after release")
	}
	guard2.Release()
}

func testReleaseUnblocksWaiter(t *testing.T, factory registry.RegistryFactory) {
	mgr := newManager(factory, time.Second, time.Millisecond)

	const rounds = 10
	for i := 0; i < rounds; i++ {
		key := fmt.Sprintf("key-%d", i)

		guard, ok := mgr.TryLockNow(key)
		if !ok {
			t.Fatalf("round %d: expected to acquire free key", i)
		}

		done := make(chan bool, 1)
		go func() {
			g, ok := mgr.Lock(key)
			if ok {
				g.Release()
			}
			done <- ok
		}()

		time.Sleep(5 * time.Millisecond)
		guard.Release()

		if !<-done {
			t.Fatalf("round %d: waiter did not acquire after release", i)
		}
	}
}
