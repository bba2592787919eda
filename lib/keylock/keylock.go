package keylock

import (
	"context"
	"github.com/ValentinKolb/kLock/lib/registry"
	"sync/atomic"
	"time"
)

// tokenCounter mints holder tokens. The counter is process-wide so that
// tokens stay unique even when several managers share one registry.
var tokenCounter atomic.Uint64

// nextToken returns a fresh token. One token is minted per logical
// acquisition call, not per retry round.
//
// Thread-safety: This function is thread-safe since it uses atomic operations.
func nextToken() uint64 {
	return tokenCounter.Add(1)
}

// Manager is the keyed mutual-exclusion manager. Create instances with
// New or NewWithConfig.
type Manager struct {
	registry   registry.IRegistry
	timeout    time.Duration
	retryBase  time.Duration
	backoffCap time.Duration
}

// New creates a manager with the default configuration.
func New() *Manager {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a manager from config. Zero-value fields fall
// back to their defaults (see DefaultConfig).
func NewWithConfig(config Config) *Manager {
	if config.Registry == nil {
		config.Registry = registry.NewXSyncRegistry()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.RetryBase <= 0 {
		config.RetryBase = DefaultRetryBase
	}
	if config.BackoffCap <= 0 {
		config.BackoffCap = DefaultBackoffCap
	}
	return &Manager{
		registry:   config.Registry,
		timeout:    config.Timeout,
		retryBase:  config.RetryBase,
		backoffCap: config.BackoffCap,
	}
}

// Registry returns the registry this manager operates on. Pass it to
// another manager's Config to share locks.
func (m *Manager) Registry() registry.IRegistry {
	return m.registry
}

// --------------------------------------------------------------------------
// Acquisition Modes
// --------------------------------------------------------------------------

// TryLockNow attempts to acquire key without waiting. It returns the
// guard and true on success, or nil and false if the key is held by
// someone else. The call never sleeps or suspends.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Manager) TryLockNow(key string) (*Guard, bool) {
	start := time.Now()
	token := nextToken()

	if m.registry.InsertIfAbsent(key, token) {
		observeAcquire(modeTry, start, true)
		return newGuard(m.registry, key, token), true
	}

	observeAcquire(modeTry, start, false)
	return nil, false
}

// Lock acquires key, waiting up to the manager's default timeout. It
// returns nil and false if the key stayed contended for the whole
// timeout.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Manager) Lock(key string) (*Guard, bool) {
	return m.lockWithTimeout(key, m.timeout, modeDefault)
}

// LockWithTimeout acquires key, waiting up to timeout. It returns nil
// and false if the key stayed contended for the whole timeout.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Manager) LockWithTimeout(key string, timeout time.Duration) (*Guard, bool) {
	return m.lockWithTimeout(key, timeout, modeTimeout)
}

// LockWithContext acquires key, waiting until success or until ctx is
// cancelled. There is no implicit deadline: with a background context
// the call waits indefinitely for the key to free up.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Manager) LockWithContext(ctx context.Context, key string) (*Guard, bool) {
	return m.acquire(ctx, key, modeContext)
}

// lockWithTimeout implements the timeout-bounded modes by deriving a
// context that cancels after timeout. The deferred cancel releases the
// deadline timer on every exit path so no background work leaks.
func (m *Manager) lockWithTimeout(key string, timeout time.Duration, mode string) (*Guard, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return m.acquire(ctx, key, mode)
}

// acquire is the shared polling core of all waiting modes. It mints one
// token for the whole call, then loops: attempt InsertIfAbsent, on
// failure race the retry timer against ctx. The retry delay starts at
// the configured base and doubles after every failed round, capped at
// the configured maximum.
//
// Whichever key is freed exactly at a retry boundary is claimed by the
// next round's InsertIfAbsent, no special casing is needed for that race.
func (m *Manager) acquire(ctx context.Context, key string, mode string) (*Guard, bool) {
	start := time.Now()
	token := nextToken()

	delay := m.retryBase
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		if m.registry.InsertIfAbsent(key, token) {
			observeAcquire(mode, start, true)
			return newGuard(m.registry, key, token), true
		}
		contentionTotal.Inc()

		if timer == nil {
			timer = time.NewTimer(delay)
		} else {
			// safe to Reset here: the previous round drained timer.C
			timer.Reset(delay)
		}

		select {
		case <-ctx.Done():
			observeAcquire(mode, start, false)
			return nil, false
		case <-timer.C:
			delay *= 2
			if delay > m.backoffCap {
				delay = m.backoffCap
			}
		}
	}
}
