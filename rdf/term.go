// Package rdf provides the term and triple primitives shared by the
// graph store client and the event core.
//
// Identifiers travel through the system in shortened (prefixed) form,
// e.g. "pxio:User" or "pxio:users_1f3a". Expansion to full IRIs happens
// only at the wire boundary, when statements are serialized for the
// repository. The Codec owns that prefix table.
package rdf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mmbrian/graph-ical-sub001/errors"
)

// Resource is a reference to a graph node, in shortened or full IRI form.
// Using a distinct type keeps entity references apart from string literals
// in Triple.Object.
type Resource string

// String returns the reference as a plain string.
func (r Resource) String() string { return string(r) }

// Codec shortens and expands identifiers against a namespace prefix table.
type Codec struct {
	// prefix -> namespace IRI, e.g. "pxio" -> "http://www.pxio.de/ontology#"
	prefixes map[string]string
}

// NewCodec creates a codec from a prefix table. The table is copied.
func NewCodec(prefixes map[string]string) *Codec {
	table := make(map[string]string, len(prefixes))
	for prefix, ns := range prefixes {
		table[prefix] = ns
	}
	return &Codec{prefixes: table}
}

// Prefixes returns the configured prefixes in sorted order.
func (c *Codec) Prefixes() []string {
	out := make([]string, 0, len(c.prefixes))
	for prefix := range c.prefixes {
		out = append(out, prefix)
	}
	sort.Strings(out)
	return out
}

// Namespace returns the namespace IRI for a prefix, if registered.
func (c *Codec) Namespace(prefix string) (string, bool) {
	ns, ok := c.prefixes[prefix]
	return ns, ok
}

// Expand converts a shortened reference ("pxio:User") to a full IRI.
// Full IRIs pass through unchanged. An unregistered prefix is an error:
// silently passing it through would produce statements the repository
// accepts but no content query can ever match again.
func (c *Codec) Expand(ref string) (string, error) {
	if ref == "" {
		return "", errors.WrapInvalid(errors.ErrMalformedTriple, "Codec", "Expand", "empty reference")
	}
	if strings.Contains(ref, "://") {
		return ref, nil
	}

	prefix, local, found := strings.Cut(ref, ":")
	if !found {
		return "", errors.WrapInvalid(errors.ErrMalformedTriple, "Codec", "Expand",
			fmt.Sprintf("reference %q has no prefix", ref))
	}

	ns, ok := c.prefixes[prefix]
	if !ok {
		return "", errors.WrapInvalid(errors.ErrUnknownPrefix, "Codec", "Expand",
			fmt.Sprintf("prefix %q in %q", prefix, ref))
	}
	return ns + local, nil
}

// Shorten converts a full IRI to prefixed form using the longest matching
// namespace. IRIs outside every registered namespace are returned as-is.
func (c *Codec) Shorten(iri string) string {
	bestPrefix := ""
	bestLen := 0
	for prefix, ns := range c.prefixes {
		if strings.HasPrefix(iri, ns) && len(ns) > bestLen {
			bestPrefix = prefix
			bestLen = len(ns)
		}
	}
	if bestLen == 0 {
		return iri
	}
	return bestPrefix + ":" + iri[bestLen:]
}
