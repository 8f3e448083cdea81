// Package workspace ties one repository connection together with the
// services operating on it. Everything that used to be ambient state
// lives on an explicit Session.
package workspace

import (
	"log/slog"
	"net/http"

	"github.com/mmbrian/graph-ical-sub001/config"
	"github.com/mmbrian/graph-ical-sub001/dragbehavior"
	"github.com/mmbrian/graph-ical-sub001/errors"
	"github.com/mmbrian/graph-ical-sub001/events"
	"github.com/mmbrian/graph-ical-sub001/metric"
	"github.com/mmbrian/graph-ical-sub001/notify"
	"github.com/mmbrian/graph-ical-sub001/rdf"
	"github.com/mmbrian/graph-ical-sub001/store"
	"github.com/mmbrian/graph-ical-sub001/timeline"
)

// Session owns the state of one active repository connection: the store
// client, the notification bus, the event emitter and the session-local
// drag behaviors. One Session per repository; all parts are safe for
// concurrent use.
type Session struct {
	codec     *rdf.Codec
	store     *store.Client
	bus       *notify.Bus
	emitter   *events.Emitter
	timeline  *timeline.Service
	behaviors *dragbehavior.List

	logger  *slog.Logger
	metrics *metric.Metrics
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	logger     *slog.Logger
	metrics    *metric.Metrics
	httpClient *http.Client
}

// WithLogger sets the structured logger shared by the session parts.
func WithLogger(l *slog.Logger) Option {
	return func(o *sessionOptions) { o.logger = l }
}

// WithMetrics enables metrics on the session parts.
func WithMetrics(m *metric.Metrics) Option {
	return func(o *sessionOptions) { o.metrics = m }
}

// WithHTTPClient replaces the HTTP client used for repository requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *sessionOptions) { o.httpClient = hc }
}

// NewSession opens a session against the configured repository.
func NewSession(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Session", "NewSession", "config is required")
	}

	o := &sessionOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	codec := rdf.NewCodec(cfg.PrefixTable())

	storeOpts := []store.Option{store.WithLogger(o.logger)}
	if o.metrics != nil {
		storeOpts = append(storeOpts, store.WithMetrics(o.metrics))
	}
	if o.httpClient != nil {
		storeOpts = append(storeOpts, store.WithHTTPClient(o.httpClient))
	}
	client, err := store.NewClient(cfg.Repository.Endpoint, codec, storeOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "Session", "NewSession", "create store client")
	}

	busOpts := []notify.BusOption{notify.WithBusLogger(o.logger)}
	if o.metrics != nil {
		busOpts = append(busOpts, notify.WithBusMetrics(o.metrics))
	}
	bus := notify.NewBus(busOpts...)

	emitterOpts := []events.EmitterOption{events.WithLogger(o.logger)}
	if o.metrics != nil {
		emitterOpts = append(emitterOpts, events.WithMetrics(o.metrics))
	}
	emitter := events.NewEmitter(client, bus, emitterOpts...)

	return &Session{
		codec:     codec,
		store:     client,
		bus:       bus,
		emitter:   emitter,
		timeline:  timeline.NewService(client, o.logger),
		behaviors: dragbehavior.NewList(),
		logger:    o.logger,
		metrics:   o.metrics,
	}, nil
}

// Codec returns the term codec of this repository connection.
func (s *Session) Codec() *rdf.Codec { return s.codec }

// Store returns the graph store client.
func (s *Session) Store() *store.Client { return s.store }

// Bus returns the completion notification bus.
func (s *Session) Bus() *notify.Bus { return s.bus }

// Emitter returns the mutation intake.
func (s *Session) Emitter() *events.Emitter { return s.emitter }

// Timeline returns the event log reader.
func (s *Session) Timeline() *timeline.Service { return s.timeline }

// Behaviors returns the session-local drag behavior list.
func (s *Session) Behaviors() *dragbehavior.List { return s.behaviors }

// Reconstructor builds an event log reconstructor over this session's
// store.
func (s *Session) Reconstructor() *events.Reconstructor {
	opts := []events.ReconstructorOption{events.WithReconstructorLogger(s.logger)}
	if s.metrics != nil {
		opts = append(opts, events.WithReconstructorMetrics(s.metrics))
	}
	return events.NewReconstructor(s.store, opts...)
}

// Close drains in-flight mutations. The session is unusable afterwards
// only by convention; nothing is torn down beyond the drain.
func (s *Session) Close() {
	s.emitter.Drain()
}
