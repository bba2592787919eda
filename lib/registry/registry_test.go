package registry

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

// engines lists all registry implementations under test
var engines = map[string]RegistryFactory{
	"XSync":    NewXSyncRegistry,
	"MutexMap": NewMutexMapRegistry,
}

func TestInsertIfAbsent(t *testing.T) {
	for name, factory := range engines {
		t.Run(name, func(t *testing.T) {
			reg := factory()

			if !reg.InsertIfAbsent("key", 1) {
				t.Fatal("expected insert into empty registry to succeed")
			}
			if reg.InsertIfAbsent("key", 2) {
				t.Fatal("expected insert on held key to fail")
			}
			if !reg.InsertIfAbsent("other-key", 3) {
				t.Fatal("expected insert on unrelated key to succeed")
			}
			if reg.Size() != 2 {
				t.Fatalf("expected 2 held keys, got %d", reg.Size())
			}
		})
	}
}

func TestRemoveIfMatch(t *testing.T) {
	for name, factory := range engines {
		t.Run(name, func(t *testing.T) {
			reg := factory()

			// removing from an empty registry must not create an entry
			reg.RemoveIfMatch("key", 1)
			if reg.Size() != 0 {
				t.Fatalf("expected empty registry, got %d entries", reg.Size())
			}

			reg.InsertIfAbsent("key", 1)

			// wrong token must be a no-op
			reg.RemoveIfMatch("key", 2)
			if reg.InsertIfAbsent("key", 3) {
				t.Fatal("expected key to still be held after mismatched remove")
			}

			// matching token removes the entry
			reg.RemoveIfMatch("key", 1)
			if !reg.InsertIfAbsent("key", 3) {
				t.Fatal("expected key to be free after matching remove")
			}
		})
	}
}

// TestSingleWinner verifies that exactly one of many concurrent inserters
// wins a round for a given key.
func TestSingleWinner(t *testing.T) {
	for name, factory := range engines {
		t.Run(name, func(t *testing.T) {
			reg := factory()
			const goroutines = 64
			const rounds = 200

			for round := 0; round < rounds; round++ {
				key := fmt.Sprintf("key-%d", round)

				var wins atomic.Int64
				var wg sync.WaitGroup
				wg.Add(goroutines)

				for g := 0; g < goroutines; g++ {
					go func(token uint64) {
						defer wg.Done()
						if reg.InsertIfAbsent(key, token) {
							wins.Add(1)
						}
					}(uint64(round*goroutines + g + 1))
				}
				wg.Wait()

				if wins.Load() != 1 {
					t.Fatalf("round %d: expected exactly 1 winner, got %d", round, wins.Load())
				}
			}
		})
	}
}

// TestConcurrentChurn hammers insert and remove on a small key space and
// checks that the registry never loses track of the holder invariant.
func TestConcurrentChurn(t *testing.T) {
	for name, factory := range engines {
		t.Run(name, func(t *testing.T) {
			reg := factory()
			const goroutines = 32
			const iterations = 500

			var tokens atomic.Uint64
			var wg sync.WaitGroup
			wg.Add(goroutines)

			for g := 0; g < goroutines; g++ {
				go func(id int) {
					defer wg.Done()
					key := fmt.Sprintf("key-%d", id%4)
					for i := 0; i < iterations; i++ {
						token := tokens.Add(1)
						if reg.InsertIfAbsent(key, token) {
							reg.RemoveIfMatch(key, token)
						}
					}
				}(g)
			}
			wg.Wait()

			if reg.Size() != 0 {
				t.Fatalf("expected all keys released, got %d entries", reg.Size())
			}
		})
	}
}
