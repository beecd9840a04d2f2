package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors for the SOS dispatch path.
type Metrics struct {
	Dispatches       *prometheus.CounterVec
	Sends            *prometheus.CounterVec
	DispatchDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sos_dispatch_total",
			Help: "SOS dispatches by final status.",
		}, []string{"status"}),
		Sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sos_send_total",
			Help: "Per-recipient send attempts by result and error code.",
		}, []string{"result", "code"}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sos_dispatch_duration_seconds",
			Help:    "Wall time of a whole dispatch, contact lookup included.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.Dispatches, m.Sends, m.DispatchDuration)
	return m
}
