package registry

import (
	"sync"
)

// mutexMapImpl implements IRegistry with a plain map behind a single mutex
type mutexMapImpl struct {
	mu   sync.Mutex
	data map[string]uint64
}

// NewMutexMapRegistry creates a new registry backed by a mutex-guarded map.
// All operations on this engine serialize on one lock, which is fine for
// small key spaces and makes the engine easy to reason about.
func NewMutexMapRegistry() IRegistry {
	return &mutexMapImpl{
		data: make(map[string]uint64),
	}
}

// InsertIfAbsent stores token under key only if no entry exists.
//
// Thread-safety: This method is thread-safe, the check and the insert
// happen under the registry mutex.
func (r *mutexMapImpl) InsertIfAbsent(key string, token uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[key]; ok {
		return false
	}
	r.data[key] = token
	return true
}

// RemoveIfMatch removes the entry for key only if it still holds token.
//
// Thread-safety: This method is thread-safe, the compare and the delete
// happen under the registry mutex.
func (r *mutexMapImpl) RemoveIfMatch(key string, token uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.data[key]; ok && current == token {
		delete(r.data, key)
	}
}

// Size returns the number of currently held keys.
func (r *mutexMapImpl) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}
