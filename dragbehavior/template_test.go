package dragbehavior

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmbrian/graph-ical-sub001/rdf"
	"github.com/mmbrian/graph-ical-sub001/store"
	"github.com/mmbrian/graph-ical-sub001/vocabulary"
)

// templateStore fakes the slice of the store client used by template
// persistence.
type templateStore struct {
	codec   *rdf.Codec
	added   [][]rdf.Triple
	queries []string
	results *store.Results
	err     error
}

func newTemplateStore() *templateStore {
	return &templateStore{
		codec:   rdf.NewCodec(vocabulary.Prefixes()),
		results: &store.Results{},
	}
}

func (s *templateStore) AddStatements(_ context.Context, triples []rdf.Triple) error {
	s.added = append(s.added, triples)
	return s.err
}

func (s *templateStore) Select(_ context.Context, query string) (*store.Results, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *templateStore) Codec() *rdf.Codec { return s.codec }

func TestSaveTemplate(t *testing.T) {
	s := newTemplateStore()
	l := NewList()
	require.NoError(t, l.Add(userToGroup()))

	ref, err := SaveTemplate(context.Background(), s, "default layout", l)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(ref), "pxio:template_"))

	require.Len(t, s.added, 1)
	set := s.added[0]
	// Template header plus one behavior node with five attributes and
	// its link.
	require.Len(t, set, 9)

	assert.Contains(t, set, rdf.T(ref, vocabulary.RDFType, rdf.Resource(vocabulary.Template)))
	assert.Contains(t, set, rdf.T(ref, vocabulary.Name, "default layout"))

	var behaviourRef rdf.Resource
	for _, tr := range set {
		if tr.Predicate == rdf.Resource(vocabulary.HasBehaviour) {
			behaviourRef = tr.Object.(rdf.Resource)
		}
	}
	require.True(t, strings.HasPrefix(string(behaviourRef), "pxio:behaviour_"))

	assert.Contains(t, set, rdf.T(behaviourRef, vocabulary.RDFType, rdf.Resource(vocabulary.DragBehaviour)))
	assert.Contains(t, set, rdf.T(behaviourRef, vocabulary.SourceType, rdf.Resource(vocabulary.User)))
	assert.Contains(t, set, rdf.T(behaviourRef, vocabulary.TargetType, rdf.Resource(vocabulary.Group)))
	assert.Contains(t, set, rdf.T(behaviourRef, vocabulary.Relation, rdf.Resource(vocabulary.MemberOf)))
	assert.Contains(t, set, rdf.T(behaviourRef, vocabulary.AddText, "Add to group"))
	assert.Contains(t, set, rdf.T(behaviourRef, vocabulary.RemoveText, "Remove from group"))
}

func TestSaveTemplateRequiresName(t *testing.T) {
	s := newTemplateStore()
	_, err := SaveTemplate(context.Background(), s, "", NewList())
	require.Error(t, err)
	assert.Empty(t, s.added)
}

func TestLoadTemplate(t *testing.T) {
	s := newTemplateStore()
	s.results = &store.Results{
		Vars: []string{"b", "src", "tgt", "rel", "add", "rem"},
		Rows: []store.Row{
			{
				"b":   {Type: "uri", Value: vocabulary.PxioNamespace + "behaviour_1"},
				"src": {Type: "uri", Value: vocabulary.PxioNamespace + "User"},
				"tgt": {Type: "uri", Value: vocabulary.PxioNamespace + "Group"},
				"rel": {Type: "uri", Value: vocabulary.PxioNamespace + "memberOf"},
				"add": {Type: "literal", Value: "Add to group"},
			},
		},
	}

	behaviors, err := LoadTemplate(context.Background(), s, "default layout")
	require.NoError(t, err)
	require.Len(t, behaviors, 1)

	assert.Equal(t, Behavior{
		SourceType: vocabulary.User,
		TargetType: vocabulary.Group,
		Relation:   vocabulary.MemberOf,
		AddText:    "Add to group",
		RemoveText: "",
	}, behaviors[0])

	require.Len(t, s.queries, 1)
	query := s.queries[0]
	assert.Contains(t, query, vocabulary.Template)
	assert.Contains(t, query, `"default layout"`)
	assert.Contains(t, query, "OPTIONAL")
}

func TestLoadTemplateQueryFailure(t *testing.T) {
	s := newTemplateStore()
	s.err = assert.AnError

	_, err := LoadTemplate(context.Background(), s, "default layout")
	assert.Error(t, err)
}

func TestTemplateRoundTrip(t *testing.T) {
	s := newTemplateStore()
	l := NewList()
	require.NoError(t, l.Add(userToGroup()))

	_, err := SaveTemplate(context.Background(), s, "layout", l)
	require.NoError(t, err)

	// Echo the saved behavior back as a query result.
	set := s.added[0]
	row := store.Row{}
	for _, tr := range set {
		switch string(tr.Predicate) {
		case vocabulary.SourceType:
			row["src"] = bindingFor(t, s.codec, tr.Object.(rdf.Resource))
		case vocabulary.TargetType:
			row["tgt"] = bindingFor(t, s.codec, tr.Object.(rdf.Resource))
		case vocabulary.Relation:
			row["rel"] = bindingFor(t, s.codec, tr.Object.(rdf.Resource))
		case vocabulary.AddText:
			row["add"] = store.Binding{Type: "literal", Value: tr.Object.(string)}
		case vocabulary.RemoveText:
			row["rem"] = store.Binding{Type: "literal", Value: tr.Object.(string)}
		}
	}
	s.results = &store.Results{Rows: []store.Row{row}}

	behaviors, err := LoadTemplate(context.Background(), s, "layout")
	require.NoError(t, err)
	require.Len(t, behaviors, 1)
	assert.Equal(t, userToGroup(), behaviors[0])
}

func bindingFor(t *testing.T, codec *rdf.Codec, ref rdf.Resource) store.Binding {
	t.Helper()
	iri, err := codec.Expand(string(ref))
	require.NoError(t, err)
	return store.Binding{Type: "uri", Value: iri}
}
