// Package natsclient manages the NATS connection used to fan
// notifications out to consumers running outside the process.
package natsclient

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mmbrian/graph-ical-sub001/errors"
)

// ConnectionStatus represents the state of the NATS connection
type ConnectionStatus int

// Possible connection statuses
const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
)

// String returns the string representation of ConnectionStatus
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// ErrNotConnected is returned when an operation needs a live connection.
var ErrNotConnected = stderrors.New("not connected to NATS")

// Client wraps a NATS connection with reconnect handling and a
// JetStream accessor.
type Client struct {
	url    string
	logger *slog.Logger

	conn *nats.Conn
	js   jetstream.JetStream

	status     atomic.Value // ConnectionStatus
	reconnects atomic.Int32

	maxReconnects int
	reconnectWait time.Duration
	timeout       time.Duration
	clientName    string
	username      string
	password      string
	token         string

	mu     sync.RWMutex
	closed atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithName sets the client connection name.
func WithName(name string) Option {
	return func(c *Client) { c.clientName = name }
}

// WithCredentials sets username/password authentication.
func WithCredentials(username, password string) Option {
	return func(c *Client) { c.username, c.password = username, password }
}

// WithToken sets token authentication.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the connection timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMaxReconnects bounds reconnection attempts (-1 = infinite).
func WithMaxReconnects(n int) Option {
	return func(c *Client) { c.maxReconnects = n }
}

// NewClient creates a NATS client for url. Connect must be called
// before publishing.
func NewClient(url string, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Client", "NewClient", "url is required")
	}

	c := &Client{
		url:           url,
		logger:        slog.Default(),
		maxReconnects: -1,
		reconnectWait: 2 * time.Second,
		timeout:       5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.status.Store(StatusDisconnected)

	return c, nil
}

// URL returns the NATS server URL.
func (c *Client) URL() string { return c.url }

// Status returns the current connection status.
func (c *Client) Status() ConnectionStatus {
	v := c.status.Load()
	if v == nil {
		return StatusDisconnected
	}
	return v.(ConnectionStatus)
}

// IsHealthy reports whether the connection is usable.
func (c *Client) IsHealthy() bool {
	return c.Status() == StatusConnected
}

// Reconnects returns the number of reconnections so far.
func (c *Client) Reconnects() int32 {
	return c.reconnects.Load()
}

func (c *Client) connectionOptions() []nats.Option {
	opts := []nats.Option{
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.Timeout(c.timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.status.Store(StatusReconnecting)
			c.logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			c.reconnects.Add(1)
			c.status.Store(StatusConnected)
			c.logger.Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			c.status.Store(StatusDisconnected)
		}),
	}

	if c.username != "" && c.password != "" {
		opts = append(opts, nats.UserInfo(c.username, c.password))
	}
	if c.token != "" {
		opts = append(opts, nats.Token(c.token))
	}
	if c.clientName != "" {
		opts = append(opts, nats.Name(c.clientName))
	}

	return opts
}

// Connect establishes the connection and the JetStream context.
func (c *Client) Connect(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && c.conn.IsConnected() {
		return nil
	}

	c.status.Store(StatusConnecting)
	conn, err := nats.Connect(c.url, c.connectionOptions()...)
	if err != nil {
		c.status.Store(StatusDisconnected)
		return errors.WrapTransient(err, "Client", "Connect", "connect to "+c.url)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		c.status.Store(StatusDisconnected)
		return errors.WrapFatal(err, "Client", "Connect", "create JetStream context")
	}

	c.conn = conn
	c.js = js
	c.status.Store(StatusConnected)
	c.logger.Info("connected to NATS", "url", c.url)

	return nil
}

// Publish sends data to a subject over the core connection.
func (c *Client) Publish(_ context.Context, subject string, data []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return errors.WrapTransient(ErrNotConnected, "Client", "Publish", "publish to "+subject)
	}
	if err := conn.Publish(subject, data); err != nil {
		return errors.WrapTransient(err, "Client", "Publish", "publish to "+subject)
	}
	return nil
}

// Subscribe registers a handler for a subject.
func (c *Client) Subscribe(subject string, handler func(data []byte)) (*nats.Subscription, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return nil, errors.WrapTransient(ErrNotConnected, "Client", "Subscribe", "subscribe to "+subject)
	}

	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "Subscribe", "subscribe to "+subject)
	}
	return sub, nil
}

// JetStream returns the JetStream context, or nil before Connect.
func (c *Client) JetStream() jetstream.JetStream {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.js
}

// Close drains and closes the connection. Safe to call more than once.
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.logger.Warn("NATS drain failed", "error", err)
			c.conn.Close()
		}
		c.conn = nil
		c.js = nil
	}
	c.status.Store(StatusDisconnected)
}
