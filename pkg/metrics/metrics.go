package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics counts messaging traffic: what the consumer read, what it
// processed, what it quarantined, and what the publisher emitted.
type PipelineMetrics struct {
	Consumed     *prometheus.CounterVec
	Processed    *prometheus.CounterVec
	DeadLettered *prometheus.CounterVec
	Published    *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	return NewPipelineMetricsWith(prometheus.DefaultRegisterer, service)
}

func NewPipelineMetricsWith(reg prometheus.Registerer, service string) *PipelineMetrics {
	m := &PipelineMetrics{
		Consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "messages_consumed_total",
			Help:      "Messages read from inbound topics.",
		}, []string{"topic"}),
		Processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "messages_processed_total",
			Help:      "Messages handled successfully.",
		}, []string{"topic"}),
		DeadLettered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "messages_dead_lettered_total",
			Help:      "Messages routed to a dead-letter topic.",
		}, []string{"topic"}),
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "events_published_total",
			Help:      "Domain events published to outbound topics.",
		}, []string{"pattern"}),
	}
	reg.MustRegister(m.Consumed, m.Processed, m.DeadLettered, m.Published)
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}
