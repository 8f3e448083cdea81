// Package dragbehavior holds the user-declared rules that map a drag
// between two typed entities to a toggleable relation.
package dragbehavior

import (
	"sync"

	"github.com/mmbrian/graph-ical-sub001/errors"
	"github.com/mmbrian/graph-ical-sub001/rdf"
)

// Behavior is one declarative drag rule. Immutable after creation;
// removal is the only modification.
type Behavior struct {
	SourceType rdf.Resource `json:"source_type"`
	TargetType rdf.Resource `json:"target_type"`
	Relation   rdf.Resource `json:"relation"`
	AddText    string       `json:"add_text"`
	RemoveText string       `json:"remove_text"`
}

// Validate checks the rule is complete.
func (b Behavior) Validate() error {
	if b.SourceType == "" || b.TargetType == "" || b.Relation == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "Behavior", "Validate",
			"source type, target type and relation are required")
	}
	return nil
}

// List is the session-scoped collection of drag behaviors. Two equal
// behaviors may coexist: nothing deduplicates on Add, so a duplicate
// rule shows duplicate context-menu entries.
type List struct {
	mu        sync.RWMutex
	behaviors []Behavior
}

// NewList creates an empty behavior list.
func NewList() *List {
	return &List{}
}

// Add appends a behavior to the session list.
func (l *List) Add(b Behavior) error {
	if err := b.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.behaviors = append(l.behaviors, b)
	return nil
}

// Remove deletes every behavior equal to b. Returns the number removed.
func (l *List) Remove(b Behavior) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.behaviors[:0]
	removed := 0
	for _, existing := range l.behaviors {
		if existing == b {
			removed++
			continue
		}
		kept = append(kept, existing)
	}
	l.behaviors = kept
	return removed
}

// All returns a copy of the current behaviors.
func (l *List) All() []Behavior {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Behavior, len(l.behaviors))
	copy(out, l.behaviors)
	return out
}

// Match returns every behavior applying to a drag from sourceType onto
// targetType, in insertion order.
func (l *List) Match(sourceType, targetType rdf.Resource) []Behavior {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matches []Behavior
	for _, b := range l.behaviors {
		if b.SourceType == sourceType && b.TargetType == targetType {
			matches = append(matches, b)
		}
	}
	return matches
}

// Replace swaps the whole list, used when loading a template.
func (l *List) Replace(behaviors []Behavior) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.behaviors = make([]Behavior, len(behaviors))
	copy(l.behaviors, behaviors)
}
