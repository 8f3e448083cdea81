package vocabulary

import (
	"fmt"
	"strings"
)

// Meta-type classification. Reconstruction scans and ordinary content
// queries both need to exclude schema/vocabulary machinery, the event
// log itself, and the display-in-group join entity (its creation is
// recorded as a relation-change event, not an instance event). The
// denylist lives here so the two cannot drift apart.

var trivialTypes = []string{
	"rdfs:Class",
	"rdf:Property",
	"rdfs:Resource",
	"rdfs:Datatype",
	"owl:Class",
	"owl:ObjectProperty",
	"owl:DatatypeProperty",
	"owl:Ontology",
	EventType,
	DisplayInGroup,
}

// TrivialTypes returns the denylist of schema/meta types excluded from
// content scans. The returned slice is a copy.
func TrivialTypes() []string {
	out := make([]string, len(trivialTypes))
	copy(out, trivialTypes)
	return out
}

// IsTrivialType reports whether a (shortened) type reference is schema or
// meta machinery rather than workspace content.
func IsTrivialType(ref string) bool {
	for _, t := range trivialTypes {
		if ref == t {
			return true
		}
	}
	// Anything living in the schema namespaces counts as meta even if it
	// is not listed explicitly.
	return strings.HasPrefix(ref, "rdf:") ||
		strings.HasPrefix(ref, "rdfs:") ||
		strings.HasPrefix(ref, "owl:") ||
		strings.HasPrefix(ref, "xsd:")
}

// TrivialTypeFilter renders a SPARQL filter excluding the denylisted
// types for the given variable, e.g. "?type". Used verbatim by the store
// client's reconstruction scans.
func TrivialTypeFilter(variable string) string {
	clauses := make([]string, 0, len(trivialTypes))
	for _, t := range trivialTypes {
		clauses = append(clauses, fmt.Sprintf("%s != %s", variable, t))
	}
	return "FILTER (" + strings.Join(clauses, " && ") + ")"
}

// EventExclusionFilter renders a SPARQL clause excluding any solution
// where the given variable is an Event instance. Used by the one-hop
// description fetch so deleting an entity can never delete its history.
func EventExclusionFilter(variable string) string {
	return fmt.Sprintf("FILTER NOT EXISTS { %s %s %s }", variable, RDFType, EventType)
}
