// Package timeline renders the event log as a reverse-chronological
// list of human-readable entries.
package timeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmbrian/graph-ical-sub001/errors"
	"github.com/mmbrian/graph-ical-sub001/events"
	"github.com/mmbrian/graph-ical-sub001/rdf"
)

// Sentinel shown when an event description is missing a value a message
// needs. Matches the fallback the rest of the UI uses for absent
// literals.
const missingValue = "N/A"

// Store is the slice of the graph store client the timeline needs.
type Store interface {
	EventRefsByTime(ctx context.Context) ([]rdf.Resource, error)
	Describe(ctx context.Context, ref rdf.Resource) ([]rdf.Triple, error)
}

// Entry is one rendered timeline row.
type Entry struct {
	Event   events.Event `json:"event"`
	Message string       `json:"message"`
	Origin  string       `json:"origin"` // "local" or "cloud"
}

// Service replays the event log on demand. It holds no cache beyond the
// one in-memory slice built per call.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a timeline over the given store.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Entries performs a full scan: all events ordered by time, one
// description fetch per event, newest first in the result. Events whose
// description no longer parses are skipped with a log line; dangling
// references inside parseable events are rendered with the N/A
// sentinel, never dropped.
func (s *Service) Entries(ctx context.Context) ([]Entry, error) {
	refs, err := s.store.EventRefsByTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Service", "Entries", "fetch ordered events")
	}

	entries := make([]Entry, 0, len(refs))
	for _, ref := range refs {
		description, err := s.store.Describe(ctx, ref)
		if err != nil {
			s.logger.Warn("skipping undescribable event", "event", string(ref), "error", err)
			continue
		}
		ev, err := events.ParseEvent(ref, description)
		if err != nil {
			s.logger.Warn("skipping unparseable event", "event", string(ref), "error", err)
			continue
		}

		origin := "cloud"
		if ev.IsLocal {
			origin = "local"
		}
		entries = append(entries, Entry{
			Event:   *ev,
			Message: Message(ev),
			Origin:  origin,
		})
	}

	// Reverse chronological: the scan is oldest first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Message synthesizes the human-readable description of an event.
func Message(ev *events.Event) string {
	typ := orMissing(ev.EntityType)
	subject := orMissing(ev.SubjectRef)

	if ev.IsForInstance {
		if ev.IsAdded {
			return fmt.Sprintf("Added a new %s %s", typ, subject)
		}
		return fmt.Sprintf("Removed the %s %s", typ, subject)
	}

	object := orMissing(ev.ObjectRef)
	if ev.IsAdded {
		return fmt.Sprintf("Added a new relation %s between %s and %s", typ, subject, object)
	}
	return fmt.Sprintf("Removed the relation %s between %s and %s", typ, subject, object)
}

func orMissing(r rdf.Resource) string {
	if r == "" {
		return missingValue
	}
	return string(r)
}
