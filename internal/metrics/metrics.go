package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	EventsReceived  prometheus.Counter
	OrdersPersisted prometheus.Counter
	EventsRejected  *prometheus.CounterVec
	DeadLettered    prometheus.Counter
	IngestLatency   prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	received := prometheus.NewCounter(prometheus.CounterOpts{Name: "ingest_events_received_total"})
	persisted := prometheus.NewCounter(prometheus.CounterOpts{Name: "ingest_orders_persisted_total"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ingest_events_rejected_total"}, []string{"reason"})
	deadLettered := prometheus.NewCounter(prometheus.CounterOpts{Name: "deadletter_published_total"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	r.MustRegister(received, persisted, rejected, deadLettered, latency)
	return &Registry{
		reg:             r,
		EventsReceived:  received,
		OrdersPersisted: persisted,
		EventsRejected:  rejected,
		DeadLettered:    deadLettered,
		IngestLatency:   latency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
