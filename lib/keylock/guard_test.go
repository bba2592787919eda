package keylock

import (
	"strings"
	"testing"

	"github.com/ValentinKolb/kLock/lib/registry"
)

func TestGuardRelease(t *testing.T) {
	reg := registry.NewXSyncRegistry()
	mgr := NewWithConfig(Config{Registry: reg})

	guard, ok := mgr.TryLockNow("key")
	if !ok {
		t.Fatal("expected to acquire")
	}
	if guard.Key() != "key" {
		t.Errorf("expected key %q, got %q", "key", guard.Key())
	}
	if reg.Size() != 1 {
		t.Fatalf("expected 1 registry entry, got %d", reg.Size())
	}

	guard.Release()
	if reg.Size() != 0 {
		t.Fatalf("expected empty registry after release, got %d entries", reg.Size())
	}
}

func TestGuardStaleReleaseKeepsNewHolder(t *testing.T) {
	reg := registry.NewXSyncRegistry()
	mgr := NewWithConfig(Config{Registry: reg})

	stale, _ := mgr.TryLockNow("key")
	stale.Release()

	current, ok := mgr.TryLockNow("key")
	if !ok {
		t.Fatal("expected to reacquire")
	}

	// the stale guard was already released, another Release must not
	// remove the current holder's entry
	stale.Release()
	if reg.Size() != 1 {
		t.Fatalf("stale release evicted the current holder, registry has %d entries", reg.Size())
	}

	// even a forced mismatched removal attempt must be a no-op
	reg.RemoveIfMatch("key", stale.token)
	if reg.Size() != 1 {
		t.Fatal("mismatched RemoveIfMatch evicted the current holder")
	}

	current.Release()
	if reg.Size() != 0 {
		t.Fatalf("expected empty registry, got %d entries", reg.Size())
	}
}

func TestGuardString(t *testing.T) {
	mgr := New()
	guard, _ := mgr.TryLockNow("some-key")
	defer guard.Release()

	if s := guard.String(); !strings.Contains(s, "some-key") {
		t.Errorf("expected String() to name the key, got %q", s)
	}
}
