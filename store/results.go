package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/mmbrian/graph-ical-sub001/errors"
	"github.com/mmbrian/graph-ical-sub001/rdf"
)

// Binding is one variable binding from a SPARQL result row.
type Binding struct {
	Type     string `json:"type"` // "uri", "literal", "bnode"
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
}

// Row maps variable names to bindings for one solution.
type Row map[string]Binding

// Value returns the bound value for a variable, or the empty string when
// the variable is unbound in this row. Consumers that need a display
// value substitute their own sentinel (the timeline uses "N/A").
func (r Row) Value(name string) string {
	return r[name].Value
}

// Ref returns the bound value for a variable as a shortened resource
// reference.
func (r Row) Ref(codec *rdf.Codec, name string) rdf.Resource {
	b, ok := r[name]
	if !ok {
		return ""
	}
	if b.Type == "uri" {
		return rdf.Resource(codec.Shorten(b.Value))
	}
	return rdf.Resource(b.Value)
}

// Object converts a binding to the Go object representation used in
// triples: resources become rdf.Resource, typed literals become the
// matching Go primitive, everything else stays a string.
func (b Binding) Object(codec *rdf.Codec) any {
	if b.Type == "uri" {
		return rdf.Resource(codec.Shorten(b.Value))
	}

	switch codec.Shorten(b.Datatype) {
	case "xsd:boolean":
		v, err := strconv.ParseBool(b.Value)
		if err == nil {
			return v
		}
	case "xsd:integer", "xsd:int", "xsd:long":
		v, err := strconv.Atoi(b.Value)
		if err == nil {
			return v
		}
	case "xsd:double", "xsd:float", "xsd:decimal":
		v, err := strconv.ParseFloat(b.Value, 64)
		if err == nil {
			return v
		}
	case "xsd:dateTime":
		v, err := time.Parse(time.RFC3339, b.Value)
		if err == nil {
			return v
		}
	}
	return b.Value
}

// Results holds decoded SELECT results.
type Results struct {
	Vars []string
	Rows []Row
}

// sparqlResponse mirrors the SPARQL 1.1 JSON results shape; ASK
// responses carry only the boolean field.
type sparqlResponse struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Row `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean,omitempty"`
}

// Select executes a SELECT query and decodes the result bindings.
func (c *Client) Select(ctx context.Context, query string) (*Results, error) {
	body, err := c.runQuery(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "Client", "Select", "run query")
	}

	var resp sparqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.WrapInvalid(errors.ErrParsingFailed, "Client", "Select", "decode result bindings")
	}

	return &Results{Vars: resp.Head.Vars, Rows: resp.Results.Bindings}, nil
}

// Ask executes an ASK query.
func (c *Client) Ask(ctx context.Context, query string) (bool, error) {
	body, err := c.runQuery(ctx, query)
	if err != nil {
		return false, errors.Wrap(err, "Client", "Ask", "run query")
	}

	var resp sparqlResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Boolean == nil {
		return false, errors.WrapInvalid(errors.ErrParsingFailed, "Client", "Ask", "decode boolean")
	}
	return *resp.Boolean, nil
}
