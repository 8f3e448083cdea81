package events

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmbrian/graph-ical-sub001/metric"
	"github.com/mmbrian/graph-ical-sub001/notify"
	"github.com/mmbrian/graph-ical-sub001/rdf"
	"github.com/mmbrian/graph-ical-sub001/vocabulary"
)

// Store is the slice of the graph store client the emitter needs. The
// store is the sole writer to the backing repository.
type Store interface {
	AddStatements(ctx context.Context, triples []rdf.Triple) error
	DeleteStatement(ctx context.Context, t rdf.Triple) error
	Neighborhood(ctx context.Context, ref rdf.Resource) ([]rdf.Triple, error)
}

// Broadcaster receives the completion notification once both sides of a
// mutation have settled.
type Broadcaster interface {
	Publish(notify.Refresh)
}

// Emitter is the single intake for mutation requests. Submit is
// fire-and-forget: the caller gets nothing back; consumers learn about
// the change through the completion notification.
//
// Failure semantics are deliberate and must not be hardened silently:
// write failures are logged and swallowed, nothing is retried, and a
// partially applied mutation is not rolled back. Only the completion
// notification is ordered to occur after every sub-operation settled.
type Emitter struct {
	store   Store
	bus     Broadcaster
	logger  *slog.Logger
	metrics *metric.Metrics

	opTimeout time.Duration
	now       func() time.Time
	newID     func() string

	inflight sync.WaitGroup
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) EmitterOption {
	return func(e *Emitter) { e.logger = l }
}

// WithMetrics enables event metrics.
func WithMetrics(m *metric.Metrics) EmitterOption {
	return func(e *Emitter) { e.metrics = m }
}

// WithOperationTimeout bounds each store sub-operation. Without a bound
// a hanging request would keep the completion notification from ever
// firing.
func WithOperationTimeout(d time.Duration) EmitterOption {
	return func(e *Emitter) { e.opTimeout = d }
}

// WithClock replaces the wall clock (tests).
func WithClock(now func() time.Time) EmitterOption {
	return func(e *Emitter) { e.now = now }
}

// WithIDSource replaces the id generator (tests).
func WithIDSource(newID func() string) EmitterOption {
	return func(e *Emitter) { e.newID = newID }
}

// NewEmitter creates an emitter bound to one repository connection.
func NewEmitter(store Store, bus Broadcaster, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		store:     store,
		bus:       bus,
		logger:    slog.Default(),
		opTimeout: 30 * time.Second,
		now:       time.Now,
		newID:     func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit accepts a mutation request and returns immediately. Invalid
// requests are logged and dropped; the core never surfaces errors to
// the caller.
func (e *Emitter) Submit(req Request) {
	if err := req.Validate(); err != nil {
		e.logger.Error("dropping invalid mutation request",
			"event_type", string(req.EventType), "error", err)
		return
	}

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		e.process(req)
	}()
}

// Drain blocks until every accepted submission has settled. Used on
// shutdown and by tests; ordinary callers never wait.
func (e *Emitter) Drain() {
	e.inflight.Wait()
}

func (e *Emitter) process(req Request) {
	ctx, cancel := context.WithTimeout(context.Background(), e.opTimeout)
	defer cancel()

	ev := &Event{
		ID:        rdf.Resource("pxio:" + vocabulary.EventPrefix + e.newID()),
		Timestamp: e.now(),
		IsLocal:   true,
	}

	d, err := e.buildDelta(ctx, req, ev)
	if err != nil {
		// The write is abandoned and no notification fires for this
		// mutation; consumers can drift until their next refresh.
		e.logger.Error("building statement delta failed",
			"event", string(ev.ID), "event_type", string(req.EventType), "error", err)
		return
	}

	addSet := append(d.addSet, d.event.Triples()...)

	// Add and remove sets are issued concurrently; there is no ordering
	// between them and no atomicity across them. A waitgroup keyed by
	// this event joins the sub-operations before the one notification.
	var settle sync.WaitGroup
	settle.Add(1 + len(d.remove))

	go func() {
		defer settle.Done()
		if err := e.store.AddStatements(ctx, addSet); err != nil {
			e.logger.Error("bulk add failed", "event", string(ev.ID), "error", err)
		}
	}()

	for _, t := range d.remove {
		go func(t rdf.Triple) {
			defer settle.Done()
			if err := e.store.DeleteStatement(ctx, t); err != nil {
				// Per-triple failures do not abort sibling deletes.
				e.logger.Error("delete failed", "event", string(ev.ID),
					"subject", string(t.Subject), "predicate", string(t.Predicate), "error", err)
			}
		}(t)
	}

	settle.Wait()

	if e.metrics != nil {
		e.metrics.RecordEventEmitted(string(req.EventType), "local")
		e.metrics.RecordTriples(len(addSet), len(d.remove))
		e.metrics.RecordNotification()
	}
	e.logger.Debug("mutation settled", "event", string(ev.ID),
		"added", len(addSet), "removed", len(d.remove))

	if e.bus != nil {
		e.bus.Publish(notify.Refresh{})
	}
}
