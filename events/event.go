// Package events implements the event/versioning core: every
// user-initiated graph mutation is captured as an immutable,
// time-ordered, self-describing event stored inside the same RDF graph
// it describes. The Emitter turns mutation requests into statement
// deltas and persists them; the Reconstructor synthesizes a historical
// event log for repositories that predate event capture.
package events

import (
	"fmt"
	"time"

	"github.com/mmbrian/graph-ical-sub001/errors"
	"github.com/mmbrian/graph-ical-sub001/rdf"
	"github.com/mmbrian/graph-ical-sub001/vocabulary"
)

// Kind identifies the mutation a request describes.
type Kind string

// Mutation request kinds.
const (
	KindAddInstance    Kind = "ADD_INSTANCE"
	KindRemoveInstance Kind = "REMOVE_INSTANCE"
	KindAddRelation    Kind = "ADD_RELATION"
	KindRemoveRelation Kind = "REMOVE_RELATION"
)

// Subkind selects which auxiliary triples a request synthesizes beyond
// the universal ones.
type Subkind string

// Request subkinds.
const (
	SubkindAddUser         Subkind = "ADD_USER"
	SubkindAddGroup        Subkind = "ADD_GROUP"
	SubkindAddDisplay      Subkind = "ADD_DISPLAY"
	SubkindAddDisplayGroup Subkind = "ADD_DISPLAY_GROUP"
	SubkindAddSource       Subkind = "ADD_SOURCE"
	SubkindUserToGroup     Subkind = "ADD_U_TO_G"
	SubkindDisplayToGroup  Subkind = "ADD_D_TO_DG"
	SubkindProject         Subkind = "PROJECT"
)

// Request is a transient mutation request as pushed by the UI. It
// describes intent before it becomes an Event plus content triples.
type Request struct {
	EventType   Kind              `json:"event_type"`
	PxioType    Subkind           `json:"pxio_type"`
	Subject     rdf.Resource      `json:"subject,omitempty"`
	Predicate   rdf.Resource      `json:"predicate,omitempty"`
	Object      rdf.Resource      `json:"object,omitempty"`
	SubjectType rdf.Resource      `json:"subject_type,omitempty"`
	ObjectType  rdf.Resource      `json:"object_type,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
}

// Validate checks the request carries the fields its kind needs.
func (r *Request) Validate() error {
	switch r.EventType {
	case KindAddInstance:
		if r.SubjectType == "" {
			return errors.WrapInvalid(errors.ErrInvalidData, "Request", "Validate",
				"subject_type is required for instance creation")
		}
	case KindRemoveInstance:
		if r.Subject == "" {
			return errors.WrapInvalid(errors.ErrInvalidData, "Request", "Validate",
				"subject is required for instance removal")
		}
	case KindAddRelation, KindRemoveRelation:
		if r.Subject == "" || r.Predicate == "" || r.Object == "" {
			return errors.WrapInvalid(errors.ErrInvalidData, "Request", "Validate",
				"subject, predicate and object are required for relation changes")
		}
	default:
		return errors.WrapInvalid(errors.ErrUnknownEventKind, "Request", "Validate",
			fmt.Sprintf("event_type %q", r.EventType))
	}
	return nil
}

// Event is one atomic user-visible change to the graph. Immutable once
// written; corrections are expressed as new events.
type Event struct {
	ID            rdf.Resource `json:"id"`
	Timestamp     time.Time    `json:"timestamp"`
	IsLocal       bool         `json:"is_local"`
	IsForInstance bool         `json:"is_for_instance"`
	IsAdded       bool         `json:"is_added"`

	// Node-event fields (IsForInstance == true)
	SubjectRef rdf.Resource `json:"subject_ref,omitempty"`

	// Edge-event fields (IsForInstance == false); SubjectRef doubles as
	// the edge's subject end.
	ObjectRef rdf.Resource `json:"object_ref,omitempty"`

	// EntityType holds the created/removed entity's type for node events
	// and the relation predicate for edge events.
	EntityType rdf.Resource `json:"entity_type"`
}

// Validate enforces discriminator exclusivity: exactly one of the node
// and edge field sets is populated, selected by IsForInstance.
func (e *Event) Validate() error {
	if e.ID == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "Event", "Validate", "event id is required")
	}
	if e.Timestamp.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidData, "Event", "Validate", "timestamp is required")
	}
	if e.SubjectRef == "" || e.EntityType == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "Event", "Validate",
			"subject reference and entity type are required")
	}
	if e.IsForInstance && e.ObjectRef != "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "Event", "Validate",
			"node event must not carry an object reference")
	}
	if !e.IsForInstance && e.ObjectRef == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "Event", "Validate",
			"edge event requires an object reference")
	}
	return nil
}

// Triples renders the event's self-describing statements: the universal
// header plus the node or edge description selected by the
// discriminator.
func (e *Event) Triples() []rdf.Triple {
	triples := []rdf.Triple{
		rdf.T(e.ID, vocabulary.RDFType, rdf.Resource(vocabulary.EventType)),
		rdf.T(e.ID, vocabulary.Time, e.Timestamp),
		rdf.T(e.ID, vocabulary.IsLocal, e.IsLocal),
		rdf.T(e.ID, vocabulary.IsForInstance, e.IsForInstance),
		rdf.T(e.ID, vocabulary.IsAdded, e.IsAdded),
	}

	if e.IsForInstance {
		triples = append(triples,
			rdf.T(e.ID, vocabulary.IsFor, e.SubjectRef),
			rdf.T(e.ID, vocabulary.HasType, e.EntityType),
		)
	} else {
		triples = append(triples,
			rdf.T(e.ID, vocabulary.IsForSubject, e.SubjectRef),
			rdf.T(e.ID, vocabulary.IsForObject, e.ObjectRef),
			rdf.T(e.ID, vocabulary.HasType, e.EntityType),
		)
	}
	return triples
}

// ParseEvent reconstructs an event from its description statements as
// returned by a description fetch. Consumers must tolerate dangling
// references: the entities an event points at may since have been
// removed, so only the event's own statements are consulted.
func ParseEvent(ref rdf.Resource, description []rdf.Triple) (*Event, error) {
	e := &Event{ID: ref}
	seen := false

	for _, t := range description {
		if t.Subject != ref {
			continue
		}
		switch string(t.Predicate) {
		case vocabulary.RDFType:
			if res, ok := t.Object.(rdf.Resource); ok && string(res) == vocabulary.EventType {
				seen = true
			}
		case vocabulary.Time:
			switch v := t.Object.(type) {
			case time.Time:
				e.Timestamp = v
			case string:
				parsed, err := time.Parse(time.RFC3339, v)
				if err != nil {
					return nil, errors.WrapInvalid(errors.ErrParsingFailed, "ParseEvent", "parse",
						fmt.Sprintf("timestamp %q on %s", v, ref))
				}
				e.Timestamp = parsed
			}
		case vocabulary.IsLocal:
			e.IsLocal = asBool(t.Object)
		case vocabulary.IsForInstance:
			e.IsForInstance = asBool(t.Object)
		case vocabulary.IsAdded:
			e.IsAdded = asBool(t.Object)
		case vocabulary.IsFor, vocabulary.IsForSubject:
			if res, ok := t.Object.(rdf.Resource); ok {
				e.SubjectRef = res
			}
		case vocabulary.IsForObject:
			if res, ok := t.Object.(rdf.Resource); ok {
				e.ObjectRef = res
			}
		case vocabulary.HasType:
			if res, ok := t.Object.(rdf.Resource); ok {
				e.EntityType = res
			}
		}
	}

	if !seen {
		return nil, errors.WrapInvalid(errors.ErrEventNotFound, "ParseEvent", "parse",
			fmt.Sprintf("%s is not typed as an event", ref))
	}
	return e, nil
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	default:
		return false
	}
}
