package testing

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/kLock/lib/keylock"
	"github.com/ValentinKolb/kLock/lib/registry"
)

// RunLockBenchmarks runs all benchmarks for the keylock manager driven
// by the given registry engine.
func RunLockBenchmarks(b *testing.B, name string, factory registry.RegistryFactory) {
	b.Run("TryLockNow", func(b *testing.B) {
		benchmarkTryLockNow(b, factory)
	})

	b.Run("TryLockNow(held)", func(b *testing.B) {
		benchmarkTryLockNowHeld(b, factory)
	})

	b.Run("LockRelease", func(b *testing.B) {
		benchmarkLockRelease(b, factory)
	})

	b.Run("LockReleaseParallel", func(b *testing.B) {
		benchmarkLockReleaseParallel(b, factory)
	})

	b.Run("Contended", func(b *testing.B) {
		benchmarkContended(b, factory)
	})
}

func benchmarkTryLockNow(b *testing.B, factory registry.RegistryFactory) {
	mgr := keylock.NewWithConfig(keylock.Config{Registry: factory()})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		guard, ok := mgr.TryLockNow("bench-key")
		if !ok {
			b.Fatal("uncontended TryLockNow failed")
		}
		guard.Release()
	}
}

func benchmarkTryLockNowHeld(b *testing.B, factory registry.RegistryFactory) {
	mgr := keylock.NewWithConfig(keylock.Config{Registry: factory()})
	guard, _ := mgr.TryLockNow("bench-key")
	defer guard.Release()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := mgr.TryLockNow("bench-key"); ok {
			b.Fatal("TryLockNow on held key succeeded")
		}
	}
}

func benchmarkLockRelease(b *testing.B, factory registry.RegistryFactory) {
	mgr := keylock.NewWithConfig(keylock.Config{Registry: factory()})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		guard, ok := mgr.Lock("bench-key")
		if !ok {
			b.Fatal("uncontended Lock failed")
		}
		guard.Release()
	}
}

func benchmarkLockReleaseParallel(b *testing.B, factory registry.RegistryFactory) {
	mgr := keylock.NewWithConfig(keylock.Config{Registry: factory()})

	// distinct keys per goroutine, so this measures unrelated-key scaling
	var nextID atomic.Int64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		key := fmt.Sprintf("bench-key-%d", nextID.Add(1))
		for pb.Next() {
			guard, ok := mgr.Lock(key)
			if !ok {
				b.Fatal("Lock on private key failed")
			}
			guard.Release()
		}
	})
}

func benchmarkContended(b *testing.B, factory registry.RegistryFactory) {
	mgr := keylock.NewWithConfig(keylock.Config{
		Registry:  factory(),
		RetryBase: time.Microsecond,
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("bench-key-%d", counter%8)
			guard, ok := mgr.LockWithContext(context.Background(), key)
			if !ok {
				b.Fatal("LockWithContext failed without cancellation")
			}
			guard.Release()
			counter++
		}
	})
}
