package keylock

import (
	"github.com/ValentinKolb/kLock/lib/registry"
	"time"
)

// Default values used by managers for all Config fields left at zero.
const (
	DefaultTimeout    = 5 * time.Second
	DefaultRetryBase  = 10 * time.Millisecond
	DefaultBackoffCap = time.Second
)

// Config configures a Manager during construction. The zero value of
// every field means "use the default", so Config{} behaves like New().
type Config struct {
	// Registry is the shared key-to-token mapping the manager operates
	// on. Pass an existing registry to share locks between managers,
	// leave nil to create a fresh xsync-backed registry.
	Registry registry.IRegistry

	// Timeout is the default acquisition timeout used by Lock.
	Timeout time.Duration

	// RetryBase is the delay before the first retry of a contended
	// acquisition. The delay doubles after every failed round.
	RetryBase time.Duration

	// BackoffCap is the upper bound for the doubling retry delay.
	BackoffCap time.Duration
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{
		Registry:   registry.NewXSyncRegistry(),
		Timeout:    DefaultTimeout,
		RetryBase:  DefaultRetryBase,
		BackoffCap: DefaultBackoffCap,
	}
}
