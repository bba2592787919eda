package registry

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// RegistryFactory is a function type that creates a new registry instance.
// This is used to abstract the engine choice from the code using the registry.
type RegistryFactory func() IRegistry

// IRegistry is the interface for the shared concurrent mapping from
// resource keys to holder tokens. An entry exists for a key if and only if
// that key is currently locked, and at most one token is stored per key
// at any instant.
type IRegistry interface {
	// InsertIfAbsent stores token under key only if no entry exists for key.
	// The return value reports whether the insertion took place, i.e.
	// whether the caller's token is now the stored one.
	// Implementations must perform this as a single atomic step.
	InsertIfAbsent(key string, token uint64) bool

	// RemoveIfMatch removes the entry for key only if the stored value
	// equals token. If the key is absent or held by a different token the
	// call is a no-op.
	// Implementations must perform this as a single atomic step.
	RemoveIfMatch(key string, token uint64)

	// Size returns the number of keys currently held. The value is a
	// snapshot and may be stale by the time it is returned.
	Size() int
}
