// Package metrics collects Prometheus counters for the interesting outcomes:
// login attempts, mark attempts and session creation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the service counters.
type Collector struct {
	logins          *prometheus.CounterVec
	marks           *prometheus.CounterVec
	sessionsCreated prometheus.Counter
}

// NewCollector creates a collector and registers its metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classattend_logins_total",
			Help: "Login attempts by outcome (ok, invalid, limited).",
		}, []string{"outcome"}),
		marks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classattend_marks_total",
			Help: "Attendance mark attempts by outcome.",
		}, []string{"outcome"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "classattend_sessions_created_total",
			Help: "Class sessions created.",
		}),
	}
	reg.MustRegister(c.logins, c.marks, c.sessionsCreated)
	return c
}

// RecordLogin counts a login attempt by outcome.
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordMark counts a mark attempt by outcome.
func (c *Collector) RecordMark(outcome string) {
	c.marks.WithLabelValues(outcome).Inc()
}

// RecordSessionCreated counts a created class session.
func (c *Collector) RecordSessionCreated() {
	c.sessionsCreated.Inc()
}
