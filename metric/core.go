// Package metric defines the prometheus instrumentation for the event
// core and its collaborators.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the platform-level metrics for graph-ical.
type Metrics struct {
	// Event log metrics
	EventsEmitted        *prometheus.CounterVec
	EventsReconstructed  prometheus.Counter
	TriplesAdded         prometheus.Counter
	TriplesRemoved       prometheus.Counter
	NotificationsFired   prometheus.Counter
	NotificationsDropped prometheus.Counter

	// Graph store metrics
	StoreRequestDuration *prometheus.HistogramVec
	StoreErrors          *prometheus.CounterVec

	// Gateway metrics
	GatewayRequests  *prometheus.CounterVec
	WebsocketClients prometheus.Gauge
}

// NewMetrics creates a Metrics instance with all collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		EventsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "graphical",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Total number of events emitted to the graph",
			},
			[]string{"kind", "origin"},
		),

		EventsReconstructed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "graphical",
				Subsystem: "events",
				Name:      "reconstructed_total",
				Help:      "Total number of events synthesized by reconstruction",
			},
		),

		TriplesAdded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "graphical",
				Subsystem: "triples",
				Name:      "added_total",
				Help:      "Total number of triples submitted in add sets",
			},
		),

		TriplesRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "graphical",
				Subsystem: "triples",
				Name:      "removed_total",
				Help:      "Total number of triples submitted in remove sets",
			},
		),

		NotificationsFired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "graphical",
				Subsystem: "notify",
				Name:      "fired_total",
				Help:      "Total number of completion notifications published",
			},
		),

		NotificationsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "graphical",
				Subsystem: "notify",
				Name:      "dropped_total",
				Help:      "Notifications dropped because a subscriber channel was full",
			},
		),

		StoreRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "graphical",
				Subsystem: "store",
				Name:      "request_duration_seconds",
				Help:      "Repository request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "graphical",
				Subsystem: "store",
				Name:      "errors_total",
				Help:      "Total number of failed repository requests",
			},
			[]string{"operation"},
		),

		GatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "graphical",
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Total number of gateway requests",
			},
			[]string{"route", "status"},
		),

		WebsocketClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "graphical",
				Subsystem: "gateway",
				Name:      "websocket_clients",
				Help:      "Currently connected websocket clients",
			},
		),
	}
}

// RecordEventEmitted increments the emitted event counter.
func (m *Metrics) RecordEventEmitted(kind, origin string) {
	m.EventsEmitted.WithLabelValues(kind, origin).Inc()
}

// RecordEventsReconstructed adds to the reconstruction counter.
func (m *Metrics) RecordEventsReconstructed(n int) {
	m.EventsReconstructed.Add(float64(n))
}

// RecordTriples adds to the add/remove set counters.
func (m *Metrics) RecordTriples(added, removed int) {
	m.TriplesAdded.Add(float64(added))
	m.TriplesRemoved.Add(float64(removed))
}

// RecordNotification increments the completion notification counter.
func (m *Metrics) RecordNotification() {
	m.NotificationsFired.Inc()
}

// RecordNotificationDropped increments the dropped notification counter.
func (m *Metrics) RecordNotificationDropped() {
	m.NotificationsDropped.Inc()
}

// RecordStoreRequest records a repository request duration.
func (m *Metrics) RecordStoreRequest(operation string, duration time.Duration) {
	m.StoreRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordStoreError increments the repository error counter.
func (m *Metrics) RecordStoreError(operation string) {
	m.StoreErrors.WithLabelValues(operation).Inc()
}

// RecordGatewayRequest increments the gateway request counter.
func (m *Metrics) RecordGatewayRequest(route, status string) {
	m.GatewayRequests.WithLabelValues(route, status).Inc()
}
