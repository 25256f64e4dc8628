// Package metrics defines the minimal metrics seam used by ingestion code.
//
// Core code depends only on the Backend interface and the package-level
// helpers; concrete backends (see metrics/datadog) register themselves via
// SetBackend at process startup. When no backend is set, every call is a
// cheap no-op, so library code can instrument unconditionally.
package metrics

import "sync"

// Backend receives metric observations.
//
// Implementations must be safe for concurrent use: ingestion fans out one
// goroutine per tab and all of them report counters.
type Backend interface {
	// IncCounter adds delta to a monotonically increasing counter.
	IncCounter(name string, delta float64, tags ...string)

	// ObserveHistogram records one sample of a distribution (durations,
	// row counts per fetch, etc).
	ObserveHistogram(name string, value float64, tags ...string)

	// Flush submits anything buffered. Called at least once at shutdown.
	Flush() error
}

var (
	mu      sync.RWMutex
	backend Backend
)

// SetBackend installs the process-wide backend. Pass nil to return to the
// no-op default. Intended to be called once from main before ingestion
// starts.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	backend = b
}

// IncCounter reports to the installed backend, if any.
func IncCounter(name string, delta float64, tags ...string) {
	mu.RLock()
	b := backend
	mu.RUnlock()
	if b != nil {
		b.IncCounter(name, delta, tags...)
	}
}

// ObserveHistogram reports to the installed backend, if any.
func ObserveHistogram(name string, value float64, tags ...string) {
	mu.RLock()
	b := backend
	mu.RUnlock()
	if b != nil {
		b.ObserveHistogram(name, value, tags...)
	}
}

// Flush flushes the installed backend, if any.
func Flush() error {
	mu.RLock()
	b := backend
	mu.RUnlock()
	if b != nil {
		return b.Flush()
	}
	return nil
}
