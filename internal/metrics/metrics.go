// Package metrics is a minimal metrics facade.
//
// Pipeline code records counters and histograms through package-level
// functions; the process wires a concrete backend at startup with
// SetBackend. The default backend discards everything, so instrumented code
// never needs to check whether metrics are enabled.
package metrics

import (
	"sync/atomic"
	"time"
)

// Labels attaches dimensions to a metric sample.
type Labels map[string]string

// Backend receives metric samples. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend atomic.Value

func init() {
	backend.Store(Backend(nopBackend{}))
}

// SetBackend installs b as the process-wide backend. Call once at startup,
// before pipeline work begins.
func SetBackend(b Backend) {
	if b == nil {
		b = nopBackend{}
	}
	backend.Store(b)
}

func current() Backend {
	return backend.Load().(Backend)
}

// IncCounter adds delta to a named counter.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram records one histogram sample.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush pushes buffered samples to the backend's destination.
func Flush() error {
	return current().Flush()
}

// Step records one pipeline step outcome and its duration. status is "ok"
// or "error".
func Step(step, status string, d time.Duration) {
	l := Labels{"step": step, "status": status}
	IncCounter("pipeline_step_total", 1, l)
	ObserveHistogram("pipeline_step_duration_seconds", d.Seconds(), l)
}

// Records counts rows that passed through the pipeline, by kind
// (e.g. "loaded", "merged").
func Records(kind string, n int) {
	if n <= 0 {
		return
	}
	IncCounter("pipeline_records_total", float64(n), Labels{"kind": kind})
}
