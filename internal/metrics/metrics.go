// Package metrics holds the agent's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ozzus/nsca-agent/internal/domain"
)

const namespace = "nsca_agent"

type Metrics struct {
	checks         *prometheus.CounterVec
	checkDuration  *prometheus.HistogramVec
	submissions    *prometheus.CounterVec
	submitDuration prometheus.Histogram
	lastRun        prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checks",
			Name:      "total",
			Help:      "Checks run, by task type and resulting state",
		}, []string{"type", "state"}),

		checkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "checks",
			Name:      "duration_seconds",
			Help:      "Check execution time",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),

		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nsca",
			Name:      "submissions_total",
			Help:      "Results sent to the NSCA daemon, by outcome (ok or error kind)",
		}, []string{"outcome"}),

		submitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "nsca",
			Name:      "submit_duration_seconds",
			Help:      "Time to connect, handshake and write one record",
			Buckets:   prometheus.DefBuckets,
		}),

		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix timestamp of the last completed poll",
		}),
	}

	reg.MustRegister(
		m.checks,
		m.checkDuration,
		m.submissions,
		m.submitDuration,
		m.lastRun,
	)

	return m
}

func (m *Metrics) ObserveCheck(t domain.TaskType, state domain.ReturnCode, d time.Duration) {
	m.checks.WithLabelValues(string(t), state.String()).Inc()
	m.checkDuration.WithLabelValues(string(t)).Observe(d.Seconds())
}

// ObserveSubmission counts a submission under "ok" or the kind of err.
func (m *Metrics) ObserveSubmission(err error, d time.Duration) {
	m.submissions.WithLabelValues(Outcome(err)).Inc()
	m.submitDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveRun(at time.Time) {
	m.lastRun.Set(float64(at.Unix()))
}

// Outcome is the submissions_total label for err.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := domain.KindOf(err); kind != "" {
		return string(kind)
	}
	return "other"
}
