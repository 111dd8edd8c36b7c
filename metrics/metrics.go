// Package metrics exposes counters describing the work done by property checks.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels of the shrink attempt counter
const (
	ShrinkAccepted = "accepted"
	ShrinkRejected = "rejected"
	// The candidate could not be replayed in the current context
	ShrinkSkipped = "skipped"
)

// Records the statistics of check sessions.
// A nil Recorder is valid: it records nothing and its counter accessors return nil.
type Recorder struct {
	iterations        prometheus.Counter
	generationRetries prometheus.Counter
	failures          prometheus.Counter
	shrinkAttempts    *prometheus.CounterVec
}

// Create a recorder whose counters are registered with reg.
// Counters are not registered anywhere if reg is nil.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		iterations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "propcheck",
			Name:      "iterations_total",
			Help:      "Total iterations started by property checks",
		}),
		generationRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "propcheck",
			Name:      "generation_retries_total",
			Help:      "Generation attempts repeated because of duplicate or unsatisfiable values",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "propcheck",
			Name:      "property_failures_total",
			Help:      "Iterations on which the property was falsified",
		}),
		shrinkAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "propcheck",
			Name:      "shrink_attempts_total",
			Help:      "Shrink candidates replayed, by result",
		}, []string{"result"}),
	}
}

func (r *Recorder) Iteration() {
	if r == nil {
		return
	}
	r.iterations.Inc()
}

func (r *Recorder) GenerationRetry() {
	if r == nil {
		return
	}
	r.generationRetries.Inc()
}

func (r *Recorder) Failure() {
	if r == nil {
		return
	}
	r.failures.Inc()
}

// Count a shrink attempt with one of ShrinkAccepted, ShrinkRejected or ShrinkSkipped
func (r *Recorder) ShrinkAttempt(result string) {
	if r == nil {
		return
	}
	r.shrinkAttempts.WithLabelValues(result).Inc()
}

func (r *Recorder) IterationCounter() prometheus.Counter {
	if r == nil {
		return nil
	}
	return r.iterations
}

func (r *Recorder) GenerationRetryCounter() prometheus.Counter {
	if r == nil {
		return nil
	}
	return r.generationRetries
}

func (r *Recorder) FailureCounter() prometheus.Counter {
	if r == nil {
		return nil
	}
	return r.failures
}

func (r *Recorder) ShrinkCounter(result string) prometheus.Counter {
	if r == nil {
		return nil
	}
	return r.shrinkAttempts.WithLabelValues(result)
}
