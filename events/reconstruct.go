package events

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmbrian/graph-ical-sub001/errors"
	"github.com/mmbrian/graph-ical-sub001/metric"
	"github.com/mmbrian/graph-ical-sub001/rdf"
	"github.com/mmbrian/graph-ical-sub001/store"
	"github.com/mmbrian/graph-ical-sub001/vocabulary"
)

// Synthetic timestamps advance by a fixed step per event so a graph with
// no temporal information still gets a deterministic total order.
const reconstructionStep = 10 * time.Second

// ReconstructionStore is the slice of the graph store client the
// reconstruction batch job needs.
type ReconstructionStore interface {
	InstanceAssertions(ctx context.Context) ([]store.TypedInstance, error)
	RelationAssertions(ctx context.Context) ([]rdf.Triple, error)
	AddStatements(ctx context.Context, triples []rdf.Triple) error
	HasEvents(ctx context.Context) (bool, error)
}

// Reconstructor synthesizes a complete, time-ordered event log for a
// repository that already contains content but no event history.
//
// Intended to run at most once per repository: there is no idempotence
// guard, and re-running duplicates every synthesized event. Callers are
// warned when history already exists but not stopped.
type Reconstructor struct {
	store   ReconstructionStore
	logger  *slog.Logger
	metrics *metric.Metrics
	now     func() time.Time
	newID   func() string
}

// ReconstructorOption configures a Reconstructor.
type ReconstructorOption func(*Reconstructor)

// WithReconstructorLogger sets the structured logger.
func WithReconstructorLogger(l *slog.Logger) ReconstructorOption {
	return func(r *Reconstructor) { r.logger = l }
}

// WithReconstructorMetrics enables reconstruction metrics.
func WithReconstructorMetrics(m *metric.Metrics) ReconstructorOption {
	return func(r *Reconstructor) { r.metrics = m }
}

// WithReconstructorClock replaces the wall clock (tests).
func WithReconstructorClock(now func() time.Time) ReconstructorOption {
	return func(r *Reconstructor) { r.now = now }
}

// WithReconstructorIDSource replaces the id generator (tests).
func WithReconstructorIDSource(newID func() string) ReconstructorOption {
	return func(r *Reconstructor) { r.newID = newID }
}

// NewReconstructor creates a reconstruction job for one repository.
func NewReconstructor(s ReconstructionStore, opts ...ReconstructorOption) *Reconstructor {
	r := &Reconstructor{
		store:  s,
		logger: slog.Default(),
		now:    time.Now,
		newID:  func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run scans the repository and writes the synthesized event log in one
// bulk add. All instance-creation events come first, then all relation
// events, each timestamped exactly one step after the previous. Returns
// the number of events synthesized.
//
// The existing type and relation statements are not re-emitted; only
// event statements are written.
func (r *Reconstructor) Run(ctx context.Context) (int, error) {
	if has, err := r.store.HasEvents(ctx); err == nil && has {
		r.logger.Warn("repository already contains event history; reconstruction will duplicate it")
	}

	instances, err := r.store.InstanceAssertions(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "Reconstructor", "Run", "scan instance assertions")
	}
	relations, err := r.store.RelationAssertions(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "Reconstructor", "Run", "scan relation assertions")
	}

	baseline := r.now()
	var triples []rdf.Triple
	count := 0

	stamp := func() time.Time {
		t := baseline.Add(time.Duration(count) * reconstructionStep)
		count++
		return t
	}

	for _, inst := range instances {
		ev := &Event{
			ID:            rdf.Resource("pxio:" + vocabulary.EventPrefix + r.newID()),
			Timestamp:     stamp(),
			IsLocal:       false,
			IsForInstance: true,
			IsAdded:       true,
			SubjectRef:    inst.Ref,
			EntityType:    inst.Type,
		}
		triples = append(triples, ev.Triples()...)
	}

	for _, rel := range relations {
		obj, ok := rel.Object.(rdf.Resource)
		if !ok {
			// Literal objects are entity attributes, not edges.
			continue
		}
		ev := &Event{
			ID:            rdf.Resource("pxio:" + vocabulary.EventPrefix + r.newID()),
			Timestamp:     stamp(),
			IsLocal:       false,
			IsForInstance: false,
			IsAdded:       true,
			SubjectRef:    rel.Subject,
			ObjectRef:     obj,
			EntityType:    rel.Predicate,
		}
		triples = append(triples, ev.Triples()...)
	}

	if err := r.store.AddStatements(ctx, triples); err != nil {
		return 0, errors.Wrap(err, "Reconstructor", "Run", "bulk add synthesized events")
	}

	if r.metrics != nil {
		r.metrics.RecordEventsReconstructed(count)
	}
	r.logger.Info("event log reconstructed",
		"instances", len(instances), "relations", len(relations), "events", count)

	return count, nil
}
