// Package store implements the HTTP client for an RDF4J-compatible
// repository. It is the sole reader and writer of the backing triple
// store: SPARQL reads, bulk statement uploads and single-statement
// deletes all go through Client.
package store

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmbrian/graph-ical-sub001/errors"
	"github.com/mmbrian/graph-ical-sub001/metric"
	"github.com/mmbrian/graph-ical-sub001/pkg/retry"
	"github.com/mmbrian/graph-ical-sub001/rdf"
)

// Reads short enough to travel as a query parameter use GET; longer ones
// are POSTed form-encoded.
const maxGetQueryLength = 2000

// Client talks to one repository. Create one per active repository
// connection and share it; all methods are safe for concurrent use.
type Client struct {
	endpoint   string // repository URI, no trailing slash
	codec      *rdf.Codec
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metric.Metrics
	readRetry  retry.Config
	prologue   string // PREFIX header shared by all queries
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics enables request metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithReadRetry overrides the retry policy for read queries. Writes are
// never retried regardless of this setting.
func WithReadRetry(cfg retry.Config) Option {
	return func(c *Client) { c.readRetry = cfg }
}

// NewClient creates a client for the repository at endpoint.
func NewClient(endpoint string, codec *rdf.Codec, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Client", "NewClient", "endpoint is required")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, errors.WrapInvalid(err, "Client", "NewClient", "parse endpoint")
	}
	if codec == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Client", "NewClient", "codec is required")
	}

	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		codec:      codec,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
		readRetry:  retry.Reads(),
	}
	for _, opt := range opts {
		opt(c)
	}

	var b strings.Builder
	for _, prefix := range codec.Prefixes() {
		ns, _ := codec.Namespace(prefix)
		b.WriteString("PREFIX ")
		b.WriteString(prefix)
		b.WriteString(": <")
		b.WriteString(ns)
		b.WriteString(">\n")
	}
	c.prologue = b.String()

	return c, nil
}

// Endpoint returns the repository URI this client is bound to.
func (c *Client) Endpoint() string { return c.endpoint }

// Codec returns the term codec shared with this repository connection.
func (c *Client) Codec() *rdf.Codec { return c.codec }

// AddStatements uploads a statement set in one bulk write. The set is
// serialized as N-Triples and POSTed to the statements endpoint with the
// null context. The write is issued exactly once; callers own failure
// handling.
func (c *Client) AddStatements(ctx context.Context, triples []rdf.Triple) error {
	if len(triples) == 0 {
		return nil
	}

	start := time.Now()
	body, err := c.codec.NTriples(triples)
	if err != nil {
		c.observe("add", start, err)
		return errors.WrapInvalid(err, "Client", "AddStatements", "serialize statements")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/statements?context=null", strings.NewReader(body))
	if err != nil {
		c.observe("add", start, err)
		return errors.Wrap(err, "Client", "AddStatements", "build request")
	}
	req.Header.Set("Content-Type", "text/plain")

	err = c.do(req)
	c.observe("add", start, err)
	if err != nil {
		return errors.WrapTransient(err, "Client", "AddStatements", "bulk upload")
	}
	return nil
}

// DeleteStatement removes a single statement, identified by its terms in
// canonical bracketed form. Issued exactly once, never retried.
func (c *Client) DeleteStatement(ctx context.Context, t rdf.Triple) error {
	start := time.Now()

	params := url.Values{}
	for _, term := range []struct {
		key   string
		value any
	}{
		{"subj", t.Subject},
		{"pred", t.Predicate},
		{"obj", t.Object},
	} {
		bracketed, err := c.codec.Bracketed(term.value)
		if err != nil {
			c.observe("delete", start, err)
			return errors.WrapInvalid(err, "Client", "DeleteStatement", "serialize "+term.key)
		}
		params.Set(term.key, bracketed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.endpoint+"/statements?"+params.Encode(), nil)
	if err != nil {
		c.observe("delete", start, err)
		return errors.Wrap(err, "Client", "DeleteStatement", "build request")
	}

	err = c.do(req)
	c.observe("delete", start, err)
	if err != nil {
		return errors.WrapTransient(err, "Client", "DeleteStatement", "delete statement")
	}
	return nil
}

// do executes a write request and drains the response.
func (c *Client) do(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Wrap(errors.ErrUnexpectedStatus, "Client", "do", resp.Status)
	}
	return nil
}

// runQuery executes a SPARQL query with the shared prefix prologue and
// returns the raw response body. Reads retry on transient failures.
func (c *Client) runQuery(ctx context.Context, query string) ([]byte, error) {
	full := c.prologue + query

	return retry.DoWithResult(ctx, c.readRetry, func() ([]byte, error) {
		start := time.Now()
		body, err := c.queryOnce(ctx, full)
		c.observe("query", start, err)
		if err != nil && !errors.IsTransient(err) {
			return nil, retry.NonRetryable(err)
		}
		return body, err
	})
}

func (c *Client) queryOnce(ctx context.Context, query string) ([]byte, error) {
	var req *http.Request
	var err error

	if len(query) <= maxGetQueryLength {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet,
			c.endpoint+"?query="+url.QueryEscape(query), nil)
	} else {
		form := url.Values{"query": {query}}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost,
			c.endpoint, strings.NewReader(form.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "Client", "queryOnce", "build request")
	}
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "queryOnce", "execute query")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "queryOnce", "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.WrapTransient(errors.ErrUnexpectedStatus, "Client", "queryOnce", resp.Status)
	}
	return body, nil
}

func (c *Client) observe(operation string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordStoreRequest(operation, time.Since(start))
	if err != nil {
		c.metrics.RecordStoreError(operation)
	}
}
