package keylock

import (
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"time"
)

// mode labels used on the acquisition metrics
const (
	modeTry     = "try"
	modeDefault = "default"
	modeTimeout = "timeout"
	modeContext = "context"
)

var (
	// contentionTotal counts failed rounds, i.e. every time an acquisition
	// found its key held and had to wait
	contentionTotal = metrics.GetOrCreateCounter("klock_contention_total")

	// releaseTotal counts effective guard releases (idempotent re-releases
	// are not counted)
	releaseTotal = metrics.GetOrCreateCounter("klock_release_total")
)

// observeAcquire records the outcome and wait time of one logical
// acquisition call. Metric collection is always on, the VictoriaMetrics
// registry deduplicates the named series internally.
func observeAcquire(mode string, start time.Time, acquired bool) {
	if acquired {
		metrics.GetOrCreateCounter(fmt.Sprintf(`klock_acquire_total{mode=%q}`, mode)).Inc()
	} else {
		metrics.GetOrCreateCounter(fmt.Sprintf(`klock_acquire_failed_total{mode=%q}`, mode)).Inc()
	}
	metrics.GetOrCreateSummary(fmt.Sprintf(`klock_wait_seconds{mode=%q}`, mode)).UpdateDuration(start)
}
