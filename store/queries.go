package store

import (
	"context"
	"fmt"

	"github.com/mmbrian/graph-ical-sub001/errors"
	"github.com/mmbrian/graph-ical-sub001/rdf"
	"github.com/mmbrian/graph-ical-sub001/vocabulary"
)

// Typed read operations used by the event core and its consumers. Query
// construction is centralized here so the meta-type and event exclusion
// rules stay in one place (see vocabulary.TrivialTypeFilter).

// TypedInstance pairs an instance with one of its asserted types.
type TypedInstance struct {
	Ref  rdf.Resource
	Type rdf.Resource
}

// Describe fetches all outgoing statements of a resource.
func (c *Client) Describe(ctx context.Context, ref rdf.Resource) ([]rdf.Triple, error) {
	iri, err := c.codec.Expand(string(ref))
	if err != nil {
		return nil, errors.WrapInvalid(err, "Client", "Describe", "expand reference")
	}

	query := fmt.Sprintf("SELECT ?p ?o WHERE { <%s> ?p ?o }", iri)
	results, err := c.Select(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "Client", "Describe", "select description")
	}

	triples := make([]rdf.Triple, 0, len(results.Rows))
	for _, row := range results.Rows {
		triples = append(triples, rdf.Triple{
			Subject:   ref,
			Predicate: row.Ref(c.codec, "p"),
			Object:    row["o"].Object(c.codec),
		})
	}
	return triples, nil
}

// Neighborhood fetches the full one-hop description of a resource: every
// statement where it appears as subject or as object. Statements whose
// subject is an Event instance are excluded, so callers that delete the
// returned set can never delete event history.
func (c *Client) Neighborhood(ctx context.Context, ref rdf.Resource) ([]rdf.Triple, error) {
	iri, err := c.codec.Expand(string(ref))
	if err != nil {
		return nil, errors.WrapInvalid(err, "Client", "Neighborhood", "expand reference")
	}

	query := fmt.Sprintf(`SELECT DISTINCT ?s ?p ?o WHERE {
  { BIND(<%[1]s> AS ?s) ?s ?p ?o }
  UNION
  { ?s ?p ?o . FILTER (?o = <%[1]s>) }
  %s
}`, iri, vocabulary.EventExclusionFilter("?s"))

	results, err := c.Select(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "Client", "Neighborhood", "select one-hop description")
	}

	triples := make([]rdf.Triple, 0, len(results.Rows))
	for _, row := range results.Rows {
		triples = append(triples, rdf.Triple{
			Subject:   row.Ref(c.codec, "s"),
			Predicate: row.Ref(c.codec, "p"),
			Object:    row["o"].Object(c.codec),
		})
	}
	return triples, nil
}

// InstanceAssertions scans for all instance-creation statements:
// (instance, rdf:type, type) where type is not schema/meta machinery.
// Used by event reconstruction.
func (c *Client) InstanceAssertions(ctx context.Context) ([]TypedInstance, error) {
	query := fmt.Sprintf(`SELECT DISTINCT ?instance ?type WHERE {
  ?instance %s ?type .
  %s
}`, vocabulary.RDFType, vocabulary.TrivialTypeFilter("?type"))

	results, err := c.Select(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "Client", "InstanceAssertions", "select instance assertions")
	}

	instances := make([]TypedInstance, 0, len(results.Rows))
	for _, row := range results.Rows {
		ref := row.Ref(c.codec, "instance")
		typ := row.Ref(c.codec, "type")
		if vocabulary.IsTrivialType(string(typ)) {
			continue
		}
		instances = append(instances, TypedInstance{Ref: ref, Type: typ})
	}
	return instances, nil
}

// RelationAssertions scans for all instance-relation statements:
// (s, p, o) where p is not a type assertion, o is not a literal, both
// ends carry some asserted type and neither end is of a meta type.
// Used by event reconstruction.
func (c *Client) RelationAssertions(ctx context.Context) ([]rdf.Triple, error) {
	query := fmt.Sprintf(`SELECT DISTINCT ?s ?p ?o WHERE {
  ?s ?p ?o .
  ?s %[1]s ?stype .
  ?o %[1]s ?otype .
  FILTER (?p != %[1]s)
  FILTER (!isLiteral(?o))
  %[2]s
  %[3]s
}`, vocabulary.RDFType,
		vocabulary.TrivialTypeFilter("?stype"),
		vocabulary.TrivialTypeFilter("?otype"))

	results, err := c.Select(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "Client", "RelationAssertions", "select relation assertions")
	}

	triples := make([]rdf.Triple, 0, len(results.Rows))
	for _, row := range results.Rows {
		triples = append(triples, rdf.Triple{
			Subject:   row.Ref(c.codec, "s"),
			Predicate: row.Ref(c.codec, "p"),
			Object:    row["o"].Object(c.codec),
		})
	}
	return triples, nil
}

// EventRefsByTime returns all event instances ordered by their time
// attribute, oldest first.
func (c *Client) EventRefsByTime(ctx context.Context) ([]rdf.Resource, error) {
	query := fmt.Sprintf(`SELECT ?event ?time WHERE {
  ?event %s %s ;
         %s ?time .
} ORDER BY ?time`, vocabulary.RDFType, vocabulary.EventType, vocabulary.Time)

	results, err := c.Select(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "Client", "EventRefsByTime", "select ordered events")
	}

	refs := make([]rdf.Resource, 0, len(results.Rows))
	for _, row := range results.Rows {
		refs = append(refs, row.Ref(c.codec, "event"))
	}
	return refs, nil
}

// HasEvents reports whether the repository already contains any event
// history. Reconstruction callers use this to warn before duplicating.
func (c *Client) HasEvents(ctx context.Context) (bool, error) {
	query := fmt.Sprintf("ASK { ?event %s %s }", vocabulary.RDFType, vocabulary.EventType)
	return c.Ask(ctx, query)
}
