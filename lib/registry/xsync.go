package registry

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// xsyncImpl implements IRegistry on top of a lock-free concurrent map
type xsyncImpl struct {
	data *xsync.MapOf[string, uint64]
}

// NewXSyncRegistry creates a new registry backed by xsync.MapOf.
// This is the default engine: it scales with the number of cores and does
// not serialize operations on unrelated keys.
func NewXSyncRegistry() IRegistry {
	return &xsyncImpl{
		data: xsync.NewMapOf[string, uint64](),
	}
}

// InsertIfAbsent stores token under key only if no entry exists.
//
// Thread-safety: This method is thread-safe, LoadOrStore is a single
// atomic operation on the underlying map.
func (r *xsyncImpl) InsertIfAbsent(key string, token uint64) bool {
	_, loaded := r.data.LoadOrStore(key, token)
	return !loaded
}

// RemoveIfMatch removes the entry for key only if it still holds token.
//
// Thread-safety: This method is thread-safe, the compare and the delete
// happen inside a single atomic Compute step.
func (r *xsyncImpl) RemoveIfMatch(key string, token uint64) {
	r.data.Compute(key, func(current uint64, loaded bool) (uint64, bool) {
		if !loaded {
			return current, true // delete=true so no entry is created
		}
		// delete only if the caller is still the holder
		return current, current == token
	})
}

// Size returns the number of currently held keys.
func (r *xsyncImpl) Size() int {
	return r.data.Size()
}
