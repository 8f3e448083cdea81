package rdf

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmbrian/graph-ical-sub001/errors"
)

// Triple represents one subject-predicate-object statement.
//
// Subject and Predicate are always resources. Object is either a
// Resource (an edge to another node) or a Go literal: string, bool,
// int, int64, float64 or time.Time. Anything else fails serialization.
type Triple struct {
	Subject   Resource `json:"subject"`
	Predicate Resource `json:"predicate"`
	Object    any      `json:"object"`
}

// T is a shorthand constructor used heavily by the event delta builders.
func T(subject, predicate Resource, object any) Triple {
	return Triple{Subject: subject, Predicate: predicate, Object: object}
}

// IsRelationship reports whether this triple links two resources rather
// than attaching a literal value to its subject.
func (t Triple) IsRelationship() bool {
	_, ok := t.Object.(Resource)
	return ok
}

// XSD datatype IRIs attached to typed literals on serialization.
const (
	xsdBoolean  = "http://www.w3.org/2001/XMLSchema#boolean"
	xsdInteger  = "http://www.w3.org/2001/XMLSchema#integer"
	xsdDouble   = "http://www.w3.org/2001/XMLSchema#double"
	xsdDateTime = "http://www.w3.org/2001/XMLSchema#dateTime"
)

// Bracketed renders a term in the canonical form the repository's
// statement endpoints expect: "<iri>" for resources, a quoted (and,
// for non-strings, typed) literal otherwise.
func (c *Codec) Bracketed(term any) (string, error) {
	switch v := term.(type) {
	case Resource:
		iri, err := c.Expand(string(v))
		if err != nil {
			return "", err
		}
		return "<" + iri + ">", nil
	case string:
		// strconv.Quote produces the \", \\, \n, \r and \uXXXX escapes
		// N-Triples literals require.
		return strconv.Quote(v), nil
	case bool:
		return fmt.Sprintf("%q^^<%s>", strconv.FormatBool(v), xsdBoolean), nil
	case int:
		return fmt.Sprintf("%q^^<%s>", strconv.Itoa(v), xsdInteger), nil
	case int64:
		return fmt.Sprintf("%q^^<%s>", strconv.FormatInt(v, 10), xsdInteger), nil
	case float64:
		return fmt.Sprintf("%q^^<%s>", strconv.FormatFloat(v, 'g', -1, 64), xsdDouble), nil
	case time.Time:
		return fmt.Sprintf("%q^^<%s>", v.UTC().Format(time.RFC3339), xsdDateTime), nil
	default:
		return "", errors.WrapInvalid(errors.ErrUnsupportedObject, "Codec", "Bracketed",
			fmt.Sprintf("object type %T", term))
	}
}

// NTriples serializes a statement set to the N-Triples text format used
// for bulk uploads. One statement per line, terms in bracketed form.
func (c *Codec) NTriples(triples []Triple) (string, error) {
	var b strings.Builder
	for _, t := range triples {
		s, err := c.Bracketed(t.Subject)
		if err != nil {
			return "", errors.Wrap(err, "Codec", "NTriples", "serialize subject")
		}
		p, err := c.Bracketed(t.Predicate)
		if err != nil {
			return "", errors.Wrap(err, "Codec", "NTriples", "serialize predicate")
		}
		o, err := c.Bracketed(t.Object)
		if err != nil {
			return "", errors.Wrap(err, "Codec", "NTriples", "serialize object")
		}
		b.WriteString(s)
		b.WriteByte(' ')
		b.WriteString(p)
		b.WriteByte(' ')
		b.WriteString(o)
		b.WriteString(" .\n")
	}
	return b.String(), nil
}
