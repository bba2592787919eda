// Package keylock implements an in-process keyed mutual-exclusion
// manager: many goroutines may request exclusive access to resources
// identified by arbitrary string keys, without blocking goroutines
// working on unrelated keys. Typical uses are "at most one concurrent
// operation per user", per-file serialization, or per-job dedup.
//
// Core Functionality:
//   - Non-blocking acquisition (TryLockNow)
//   - Cancellation-driven waiting (LockWithContext)
//   - Timeout-bounded waiting (LockWithTimeout, Lock)
//   - Guard objects that prove ownership at release time
//
// Implementation Approach:
//
//	Locks are implemented on top of the atomic conditional operations of
//	a registry.IRegistry. Specifically:
//
//	- Acquisition: Every logical acquisition call first mints a fresh
//	  token from a process-wide atomic counter and then attempts
//	  InsertIfAbsent, which guarantees that only one requester can
//	  successfully claim a key per round.
//
//	- Waiting: Failed rounds wait for a retry delay that starts at the
//	  configured base and doubles after every failed round, capped at
//	  the configured maximum. The wait races the retry timer against the
//	  caller's context, whichever fires first decides the next step.
//
//	- Safe Release: A Guard releases with RemoveIfMatch against its own
//	  token, so releasing twice, or releasing after the key was handed to
//	  a new holder, never disturbs the current holder.
//
// Failure to acquire is an expected outcome and is reported as an absent
// result (nil Guard, false), never as an error. No fairness or FIFO
// ordering is guaranteed among waiters contending for the same key.
//
// Thread Safety:
//
//	A Manager is safe for concurrent use by any number of goroutines.
//	Several managers may share one registry (see Config.Registry), all
//	locks then work across the sharing managers as expected.
//
// Usage Example:
//
//	// Create a manager with default configuration
//	mgr := keylock.New()
//
//	// Acquire a lock with the default timeout
//	guard, ok := mgr.Lock("resource:123")
//	if !ok {
//	    // Contended for the whole timeout, decide what to do
//	    return
//	}
//	defer guard.Release()
//
//	// Use the resource safely
//	// ...
//
// Observability:
//
//	The package exposes acquisition counters and wait-time summaries via
//	the VictoriaMetrics metrics library (metric names prefixed "klock_").
//	Collection is always on and has no effect on locking behavior.
package keylock
