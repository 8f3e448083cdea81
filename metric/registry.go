package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the prometheus registry and the core metrics.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
}

// NewRegistry creates a registry with the core metrics and Go runtime
// collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		prometheusRegistry: prometheus.NewRegistry(),
		Metrics:            NewMetrics(),
	}

	r.prometheusRegistry.MustRegister(
		r.Metrics.EventsEmitted,
		r.Metrics.EventsReconstructed,
		r.Metrics.TriplesAdded,
		r.Metrics.TriplesRemoved,
		r.Metrics.NotificationsFired,
		r.Metrics.NotificationsDropped,
		r.Metrics.StoreRequestDuration,
		r.Metrics.StoreErrors,
		r.Metrics.GatewayRequests,
		r.Metrics.WebsocketClients,
	)

	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// PrometheusRegistry returns the underlying prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(
		r.prometheusRegistry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)
}
