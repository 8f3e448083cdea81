package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmbrian/graph-ical-sub001/errors"
	"github.com/mmbrian/graph-ical-sub001/pkg/retry"
	"github.com/mmbrian/graph-ical-sub001/rdf"
	"github.com/mmbrian/graph-ical-sub001/vocabulary"
)

// capturedRequest records what the repository saw.
type capturedRequest struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	Body        string
}

// fakeRepository is an httptest server standing in for the repository.
// Query requests are answered with the scripted body; everything else
// gets 204.
type fakeRepository struct {
	srv      *httptest.Server
	requests chan capturedRequest

	queryStatus atomic.Int32
	queryBody   atomic.Value // string
}

func newFakeRepository(t *testing.T) *fakeRepository {
	t.Helper()

	f := &fakeRepository{requests: make(chan capturedRequest, 16)}
	f.queryStatus.Store(http.StatusOK)
	f.queryBody.Store(`{"head":{"vars":[]},"results":{"bindings":[]}}`)

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.requests <- capturedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			RawQuery:    r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(body),
		}

		if strings.Contains(r.URL.Path, "/statements") {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		status := int(f.queryStatus.Load())
		w.Header().Set("Content-Type", "application/sparql-results+json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = io.WriteString(w, f.queryBody.Load().(string))
		}
	}))
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakeRepository) next(t *testing.T) capturedRequest {
	t.Helper()
	select {
	case req := <-f.requests:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a repository request")
		return capturedRequest{}
	}
}

func (f *fakeRepository) requestCount() int {
	return len(f.requests)
}

func newTestClient(t *testing.T, f *fakeRepository, opts ...Option) *Client {
	t.Helper()
	codec := rdf.NewCodec(vocabulary.Prefixes())
	opts = append([]Option{WithReadRetry(retry.None())}, opts...)
	c, err := NewClient(f.srv.URL, codec, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClientValidation(t *testing.T) {
	codec := rdf.NewCodec(vocabulary.Prefixes())

	_, err := NewClient("", codec)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)

	_, err = NewClient("http://localhost:8080/repo", nil)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
}

func TestAddStatementsWireFormat(t *testing.T) {
	f := newFakeRepository(t)
	c := newTestClient(t, f)

	err := c.AddStatements(context.Background(), []rdf.Triple{
		rdf.T("pxio:users_1", vocabulary.RDFType, rdf.Resource(vocabulary.User)),
		rdf.T("pxio:users_1", vocabulary.Name, "Alice"),
	})
	require.NoError(t, err)

	req := f.next(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/statements", req.Path)
	assert.Equal(t, "context=null", req.RawQuery)
	assert.Equal(t, "text/plain", req.ContentType)
	assert.Contains(t, req.Body,
		"<http://www.pxio.de/ontology#users_1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.pxio.de/ontology#User> .")
	assert.Contains(t, req.Body,
		"<http://www.pxio.de/ontology#users_1> <http://www.pxio.de/ontology#name> \"Alice\" .")
}

func TestAddStatementsEmptySetIsNoOp(t *testing.T) {
	f := newFakeRepository(t)
	c := newTestClient(t, f)

	require.NoError(t, c.AddStatements(context.Background(), nil))
	assert.Zero(t, f.requestCount())
}

func TestAddStatementsIssuedExactlyOnceOnFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	codec := rdf.NewCodec(vocabulary.Prefixes())
	c, err := NewClient(srv.URL, codec)
	require.NoError(t, err)

	err = c.AddStatements(context.Background(), []rdf.Triple{
		rdf.T("pxio:users_1", vocabulary.Name, "Alice"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDeleteStatementWireFormat(t *testing.T) {
	f := newFakeRepository(t)
	c := newTestClient(t, f)

	err := c.DeleteStatement(context.Background(),
		rdf.T("pxio:users_1", vocabulary.MemberOf, rdf.Resource("pxio:group_2")))
	require.NoError(t, err)

	req := f.next(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/statements", req.Path)

	parsed, err := url.ParseQuery(req.RawQuery)
	require.NoError(t, err)
	assert.Equal(t, "<http://www.pxio.de/ontology#users_1>", parsed.Get("subj"))
	assert.Equal(t, "<http://www.pxio.de/ontology#memberOf>", parsed.Get("pred"))
	assert.Equal(t, "<http://www.pxio.de/ontology#group_2>", parsed.Get("obj"))
}

func TestDeleteStatementLiteralObject(t *testing.T) {
	f := newFakeRepository(t)
	c := newTestClient(t, f)

	err := c.DeleteStatement(context.Background(),
		rdf.T("pxio:users_1", vocabulary.Name, "Alice"))
	require.NoError(t, err)

	req := f.next(t)
	parsed, err := url.ParseQuery(req.RawQuery)
	require.NoError(t, err)
	assert.Equal(t, `"Alice"`, parsed.Get("obj"))
}

func TestSelectDecodesBindings(t *testing.T) {
	f := newFakeRepository(t)
	f.queryBody.Store(`{
		"head": {"vars": ["s", "name"]},
		"results": {"bindings": [
			{
				"s": {"type": "uri", "value": "http://www.pxio.de/ontology#users_1"},
				"name": {"type": "literal", "value": "Alice"}
			}
		]}
	}`)
	c := newTestClient(t, f)

	results, err := c.Select(context.Background(), "SELECT ?s ?name WHERE { ?s pxio:name ?name }")
	require.NoError(t, err)

	assert.Equal(t, []string{"s", "name"}, results.Vars)
	require.Len(t, results.Rows, 1)
	assert.Equal(t, rdf.Resource("pxio:users_1"), results.Rows[0].Ref(c.Codec(), "s"))
	assert.Equal(t, "Alice", results.Rows[0].Value("name"))

	req := f.next(t)
	assert.Equal(t, http.MethodGet, req.Method)
	parsed, err := url.ParseQuery(req.RawQuery)
	require.NoError(t, err)
	query := parsed.Get("query")
	assert.Contains(t, query, "PREFIX pxio: <http://www.pxio.de/ontology#>")
	assert.Contains(t, query, "SELECT ?s ?name")
}

func TestSelectLongQueryUsesPostForm(t *testing.T) {
	f := newFakeRepository(t)
	c := newTestClient(t, f)

	long := "SELECT ?s WHERE { ?s ?p ?o } # " + strings.Repeat("x", 2100)
	_, err := c.Select(context.Background(), long)
	require.NoError(t, err)

	req := f.next(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/x-www-form-urlencoded", req.ContentType)
	assert.Contains(t, req.Body, "query=")
}

func TestSelectRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = io.WriteString(w, `{"head":{"vars":[]},"results":{"bindings":[]}}`)
	}))
	defer srv.Close()

	codec := rdf.NewCodec(vocabulary.Prefixes())
	c, err := NewClient(srv.URL, codec, WithReadRetry(retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}))
	require.NoError(t, err)

	_, err = c.Select(context.Background(), "SELECT ?s WHERE { ?s ?p ?o }")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAsk(t *testing.T) {
	f := newFakeRepository(t)
	f.queryBody.Store(`{"head":{},"boolean":true}`)
	c := newTestClient(t, f)

	got, err := c.Ask(context.Background(), "ASK { ?s ?p ?o }")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestAskMalformedResponse(t *testing.T) {
	f := newFakeRepository(t)
	f.queryBody.Store(`{"head":{},"results":{"bindings":[]}}`)
	c := newTestClient(t, f)

	_, err := c.Ask(context.Background(), "ASK { ?s ?p ?o }")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrParsingFailed)
}
