// Package registry provides the shared concurrent mapping from resource
// keys to holder tokens that backs the keylock manager. A key is present
// in the registry if and only if it is currently locked, and every entry
// stores the unique token of its current holder.
//
// The package focuses on:
//   - A minimal interface (IRegistry) with exactly two mutation points
//   - Atomic conditional operations that rule out lost-update races
//   - Pluggable engines behind a common interface
//
// Key Components:
//
//   - IRegistry Interface: The core abstraction with two operations,
//     InsertIfAbsent and RemoveIfMatch. Both execute as single atomic
//     steps against the underlying map. A separate read followed by a
//     separate write is never permitted, since two callers could then
//     both conclude they won the insertion.
//
//   - Token Semantics: The registry itself does not mint tokens, it only
//     stores them. Callers must supply tokens that are unique for the
//     lifetime of the registry so that RemoveIfMatch can prove, at
//     release time, that the releaser is still the current holder.
//
// Engines:
//
//	The package includes two implementations of the IRegistry interface:
//
//	- XSync Registry: Backed by xsync.MapOf, a lock-free concurrent map.
//	  This is the default engine and the right choice under high
//	  contention with many distinct keys.
//	  Created with NewXSyncRegistry().
//
//	- MutexMap Registry: A plain map guarded by a single sync.Mutex.
//	  Simpler and competitive for small key spaces, useful as a
//	  reference implementation when debugging engine behavior.
//	  Created with NewMutexMapRegistry().
//
// Thread Safety:
//
//	All engines are safe for concurrent use by any number of goroutines.
//	The interface contract requires every implementation to make both
//	mutation operations atomic.
package registry
