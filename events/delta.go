package events

import (
	"context"

	"github.com/mmbrian/graph-ical-sub001/errors"
	"github.com/mmbrian/graph-ical-sub001/rdf"
	"github.com/mmbrian/graph-ical-sub001/vocabulary"
)

// delta is the statement-level outcome of one mutation request: the
// described event plus the content statements to add and to remove.
// The event's own triples are not included in the add set here; the
// emitter appends them before submission.
type delta struct {
	event  *Event
	addSet []rdf.Triple
	remove []rdf.Triple
}

// Default positional attributes for a freshly attached display.
const (
	defaultPosition = 0
	defaultExtent   = 100
)

// paramPredicates maps node-add parameter keys to attribute predicates.
// Unknown keys fall through to a pxio-namespaced predicate of the same
// name so ad-hoc attributes survive the round trip.
var paramPredicates = map[string]string{
	"name":      vocabulary.Name,
	"firstname": vocabulary.FirstName,
	"lastname":  vocabulary.LastName,
}

// instancePrefixes maps node-add subkinds to the identifier namespace a
// fresh subject is allocated under.
var instancePrefixes = map[Subkind]string{
	SubkindAddUser:         vocabulary.UserPrefix,
	SubkindAddGroup:        vocabulary.GroupPrefix,
	SubkindAddDisplay:      vocabulary.DisplayPrefix,
	SubkindAddDisplayGroup: vocabulary.DisplayGroupPrefix,
	SubkindAddSource:       vocabulary.SourcePrefix,
}

// buildDelta translates a validated request into its statement delta.
// The passed event carries the allocated id, timestamp and locality; the
// builder fills in the discriminator and reference fields.
func (e *Emitter) buildDelta(ctx context.Context, req Request, ev *Event) (*delta, error) {
	switch req.EventType {
	case KindAddInstance:
		return e.buildInstanceAdd(req, ev), nil
	case KindRemoveInstance:
		return e.buildInstanceRemove(ctx, req, ev)
	case KindAddRelation:
		return e.buildRelationAdd(req, ev), nil
	case KindRemoveRelation:
		return e.buildRelationRemove(req, ev), nil
	default:
		return nil, errors.WrapInvalid(errors.ErrUnknownEventKind, "Emitter", "buildDelta",
			string(req.EventType))
	}
}

func (e *Emitter) buildInstanceAdd(req Request, ev *Event) *delta {
	prefix, ok := instancePrefixes[req.PxioType]
	if !ok {
		// Unscoped creations still get a fresh id, just without a
		// kind-specific namespace.
		prefix = ""
	}
	subject := rdf.Resource("pxio:" + prefix + e.newID())

	var add []rdf.Triple
	for key, value := range req.Params {
		predicate, known := paramPredicates[key]
		if !known {
			predicate = "pxio:" + key
		}
		add = append(add, rdf.T(subject, rdf.Resource(predicate), value))
	}
	add = append(add, rdf.T(subject, vocabulary.RDFType, req.SubjectType))

	ev.IsForInstance = true
	ev.IsAdded = true
	ev.SubjectRef = subject
	ev.EntityType = req.SubjectType

	return &delta{event: ev, addSet: add}
}

func (e *Emitter) buildInstanceRemove(ctx context.Context, req Request, ev *Event) (*delta, error) {
	// Delegated read: the one-hop description already excludes any
	// statement whose subject is an Event instance, so deleting an
	// entity can never delete event history.
	doomed, err := e.store.Neighborhood(ctx, req.Subject)
	if err != nil {
		return nil, errors.Wrap(err, "Emitter", "buildInstanceRemove", "fetch one-hop description")
	}

	ev.IsForInstance = true
	ev.IsAdded = false
	ev.SubjectRef = req.Subject
	ev.EntityType = req.SubjectType

	return &delta{event: ev, remove: doomed}, nil
}

func (e *Emitter) buildRelationAdd(req Request, ev *Event) *delta {
	add := []rdf.Triple{rdf.T(req.Subject, req.Predicate, req.Object)}

	if req.PxioType == SubkindDisplayToGroup {
		// Attaching a display to a display group synthesizes a join
		// entity holding the display's placement inside the group.
		join := rdf.Resource("pxio:" + vocabulary.DisplayInGroupPrefix + e.newID())
		add = append(add,
			rdf.T(join, vocabulary.RDFType, rdf.Resource(vocabulary.DisplayInGroup)),
			rdf.T(join, vocabulary.IsFrom, req.Subject),
			rdf.T(join, vocabulary.BelongsTo, req.Object),
			rdf.T(join, vocabulary.X, defaultPosition),
			rdf.T(join, vocabulary.Y, defaultPosition),
			rdf.T(join, vocabulary.Z, defaultPosition),
			rdf.T(join, vocabulary.Width, defaultExtent),
			rdf.T(join, vocabulary.Height, defaultExtent),
		)
	}

	ev.IsForInstance = false
	ev.IsAdded = true
	ev.SubjectRef = req.Subject
	ev.ObjectRef = req.Object
	ev.EntityType = req.Predicate

	return &delta{event: ev, addSet: add}
}

func (e *Emitter) buildRelationRemove(req Request, ev *Event) *delta {
	ev.IsForInstance = false
	ev.IsAdded = false
	ev.SubjectRef = req.Subject
	ev.ObjectRef = req.Object
	ev.EntityType = req.Predicate

	return &delta{
		event:  ev,
		remove: []rdf.Triple{rdf.T(req.Subject, req.Predicate, req.Object)},
	}
}
