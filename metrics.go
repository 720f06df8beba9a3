package di

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	registrations prometheus.Counter
	resolutions   *prometheus.CounterVec
	wired         prometheus.Counter
	initDuration  *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "di",
			Name:      "registrations_total",
			Help:      "Components registered into the active store.",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "di",
			Name:      "resolutions_total",
			Help:      "Component lookups by result.",
		}, []string{"result"}),
		wired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "di",
			Name:      "wired_fields_total",
			Help:      "Fields assigned by wiring.",
		}),
		initDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "di",
			Name:      "initialize_duration_seconds",
			Help:      "Time spent building the initial store.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"strategy"}),
	}

	reg.MustRegister(m.registrations, m.resolutions, m.wired, m.initDuration)

	return m
}

// The methods below are no-ops on a nil receiver so metrics stay optional.

func (m *metrics) registered(n int) {
	if m != nil {
		m.registrations.Add(float64(n))
	}
}

func (m *metrics) resolved(found bool) {
	if m == nil {
		return
	}

	if found {
		m.resolutions.WithLabelValues("hit").Inc()
	} else {
		m.resolutions.WithLabelValues("miss").Inc()
	}
}

func (m *metrics) wiredFields(n int) {
	if m != nil && n > 0 {
		m.wired.Add(float64(n))
	}
}

func (m *metrics) initialized(strategy string, elapsed time.Duration) {
	if m != nil {
		m.initDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	}
}
