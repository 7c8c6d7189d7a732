// Package metrics is a minimal, backend-agnostic metrics facade for the
// pipeline. The core packages call the package-level helpers; binaries pick
// a concrete backend (Datadog, Pushgateway) at startup. The default backend
// is a nop, so library code never needs to know whether metrics are enabled.
package metrics

import "sync"

// Backend receives pipeline measurements. Implementations buffer
// internally; Flush submits whatever is buffered.
type Backend interface {
	// IncStep counts one execution of a named pipeline step.
	IncStep(step string)
	// AddRecords counts records processed by a step (rows read per table,
	// feature rows written, ...).
	AddRecords(step string, n float64)
	// ObserveDuration records one duration sample, in seconds, for a step.
	ObserveDuration(step string, seconds float64)
	// Flush submits buffered measurements to the sink.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncStep(string)                  {}
func (nopBackend) AddRecords(string, float64)      {}
func (nopBackend) ObserveDuration(string, float64) {}
func (nopBackend) Flush() error                    { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs the process-wide backend. Pass nil to restore the nop
// backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		backend = nopBackend{}
		return
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncStep counts one execution of a named pipeline step.
func IncStep(step string) { current().IncStep(step) }

// AddRecords counts records processed by a step.
func AddRecords(step string, n float64) { current().AddRecords(step, n) }

// ObserveDuration records one duration sample, in seconds, for a step.
func ObserveDuration(step string, seconds float64) { current().ObserveDuration(step, seconds) }

// Flush submits buffered measurements on the current backend.
func Flush() error { return current().Flush() }
