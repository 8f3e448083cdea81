// Package notify carries the completion notification from the event
// emitter to its consumers: a typed in-process bus with explicit
// subscriber registration, plus a forwarder that bridges notifications
// onto NATS for out-of-process consumers.
package notify

import (
	"log/slog"
	"sync"

	"github.com/mmbrian/graph-ical-sub001/metric"
)

// Refresh is the completion notification. It deliberately carries no
// payload: consumers treat their previously fetched data as stale and
// re-issue their own queries.
type Refresh struct{}

// Per-subscriber buffer. Publishing never blocks; a subscriber that
// falls this far behind loses notifications (and one dropped refresh is
// absorbed by the next, since the signal is only "refresh now").
const subscriberBuffer = 16

// Bus is a single-writer multiple-reader notification channel. Every
// subscriber receives every published notification; publishing is
// fire-and-forget with no backpressure.
type Bus struct {
	mu      sync.RWMutex
	nextID  int
	subs    map[int]chan Refresh
	logger  *slog.Logger
	metrics *metric.Metrics
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBusLogger sets the structured logger.
func WithBusLogger(l *slog.Logger) BusOption {
	return func(b *Bus) { b.logger = l }
}

// WithBusMetrics enables fanout metrics.
func WithBusMetrics(m *metric.Metrics) BusOption {
	return func(b *Bus) { b.metrics = m }
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs:   make(map[int]chan Refresh),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a consumer and returns its notification channel
// together with a cancel function. The channel is closed on cancel.
func (b *Bus) Subscribe() (<-chan Refresh, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Refresh, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish broadcasts a notification to every subscriber without
// blocking. Publishing with no subscribers is a no-op.
func (b *Bus) Publish(n Refresh) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- n:
		default:
			if b.metrics != nil {
				b.metrics.RecordNotificationDropped()
			}
			b.logger.Warn("notification dropped: subscriber not keeping up")
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
