// Package metrics provides game and storage instrumentation with a no-op
// default and an optional Prometheus-backed recorder.
package metrics

import (
	"sync"
	"time"
)

// Recorder defines the metrics surface used across the codebase.
type Recorder interface {
	IncGame(outcome string)
	ObserveQuestions(outcome string, n int)
	IncStoreOp(op string, success bool)
	ObserveStoreSeconds(op string, success bool, seconds float64)
}

type noopRecorder struct{}

func (noopRecorder) IncGame(string)                            {}
func (noopRecorder) ObserveQuestions(string, int)              {}
func (noopRecorder) IncStoreOp(string, bool)                   {}
func (noopRecorder) ObserveStoreSeconds(string, bool, float64) {}

var (
	recMu    sync.RWMutex
	recorder Recorder = noopRecorder{}
)

// Default returns the current recorder.
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder swaps the global recorder implementation. A nil recorder
// restores the no-op default.
func SetRecorder(r Recorder) {
	recMu.Lock()
	defer recMu.Unlock()
	if r == nil {
		r = noopRecorder{}
	}
	recorder = r
}

// TimeStoreOp times a persistence operation.
func TimeStoreOp(op string) func(success bool) {
	start := time.Now()
	return func(success bool) {
		dur := time.Since(start).Seconds()
		Default().IncStoreOp(op, success)
		Default().ObserveStoreSeconds(op, success, dur)
	}
}

// GameOver records a finished game and how many questions it took.
func GameOver(outcome string, questions int) {
	Default().IncGame(outcome)
	Default().ObserveQuestions(outcome, questions)
}

// Enable installs the Prometheus recorder and serves /metrics and /healthz
// on addr. An empty addr leaves the no-op recorder in place.
func Enable(addr string) error {
	if addr == "" {
		return nil
	}
	return enablePrometheus(addr)
}
