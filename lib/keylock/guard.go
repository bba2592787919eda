package keylock

import (
	"fmt"
	"github.com/ValentinKolb/kLock/lib/registry"
	"sync/atomic"
)

// Guard represents a held lock. It exists only after a successful
// acquisition and is the sole path through which a registry entry is
// removed. A guard keeps its own registry reference, so releasing works
// even after the manager that created it is gone.
//
// Callers should release with defer to guarantee release on every exit
// path:
//
//	guard, ok := mgr.Lock(key)
//	if !ok {
//	    return
//	}
//	defer guard.Release()
type Guard struct {
	registry registry.IRegistry
	key      string
	token    uint64
	released atomic.Bool
}

// newGuard wraps a freshly won registry entry.
func newGuard(reg registry.IRegistry, key string, token uint64) *Guard {
	return &Guard{
		registry: reg,
		key:      key,
		token:    token,
	}
}

// Key returns the key this guard holds.
func (g *Guard) Key() string {
	return g.key
}

// Release frees the guard's key. The call is idempotent: only the first
// call has an effect, and a guard whose key was reassigned to a new
// holder in the meantime never removes the new holder's entry, because
// removal matches against the guard's own token.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (g *Guard) Release() {
	if g.released.CompareAndSwap(false, true) {
		g.registry.RemoveIfMatch(g.key, g.token)
		releaseTotal.Inc()
	}
}

// String implements fmt.Stringer for debugging output.
func (g *Guard) String() string {
	return fmt.Sprintf("Guard{key: %q, token: %d, released: %v}", g.key, g.token, g.released.Load())
}
