package keylock_test

import (
	"testing"

	locktesting "github.com/ValentinKolb/kLock/lib/keylock/testing"
	"github.com/ValentinKolb/kLock/lib/registry"
)

func Test(t *testing.T) {
	locktesting.RunLockSuite(t, "XSyncRegistry", registry.NewXSyncRegistry)
	locktesting.RunLockSuite(t, "MutexMapRegistry", registry.NewMutexMapRegistry)
}

func Benchmark(b *testing.B) {
	locktesting.RunLockBenchmarks(b, "XSyncRegistry", registry.NewXSyncRegistry)
}
