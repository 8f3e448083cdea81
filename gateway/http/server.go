// Package http is the browser-facing gateway: REST intake for mutation
// requests, read endpoints for the timeline and drag behaviors, and a
// websocket pushing refresh notifications.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mmbrian/graph-ical-sub001/errors"
	"github.com/mmbrian/graph-ical-sub001/metric"
	"github.com/mmbrian/graph-ical-sub001/workspace"
)

const defaultMaxRequestSize = 1 << 20 // 1 MiB

// Server serves the gateway API for one workspace session.
type Server struct {
	addr    string
	session *workspace.Session
	logger  *slog.Logger

	metrics        *metric.Metrics
	metricsHandler http.Handler

	maxRequestSize int64
	corsOrigins    []string

	running atomic.Bool
	srv     *http.Server

	requestsTotal  atomic.Uint64
	requestsFailed atomic.Uint64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics wires the metrics registry: request counters plus the
// /metrics endpoint.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = r.Metrics
		s.metricsHandler = r.Handler()
	}
}

// WithCORSOrigins enables CORS for the listed origins ("*" allows any).
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithMaxRequestSize bounds request bodies.
func WithMaxRequestSize(n int64) Option {
	return func(s *Server) { s.maxRequestSize = n }
}

// NewServer creates a gateway server for the session.
func NewServer(addr string, session *workspace.Session, opts ...Option) (*Server, error) {
	if addr == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Server", "NewServer", "addr is required")
	}
	if session == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Server", "NewServer", "session is required")
	}

	s := &Server{
		addr:           addr,
		session:        session,
		logger:         slog.Default(),
		maxRequestSize: defaultMaxRequestSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Routes builds the gateway mux. Exposed so tests can drive handlers
// through httptest without a listener.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/mutations", s.wrap("mutations", s.handleMutations))
	mux.HandleFunc("/api/timeline", s.wrap("timeline", s.handleTimeline))
	mux.HandleFunc("/api/behaviors", s.wrap("behaviors", s.handleBehaviors))
	mux.HandleFunc("/api/templates", s.wrap("templates", s.handleTemplates))
	mux.HandleFunc("/ws", s.handleWebsocket)
	if s.metricsHandler != nil {
		mux.Handle("/metrics", s.metricsHandler)
	}
	return mux
}

// Start begins serving. Returns once the listener goroutine is running.
func (s *Server) Start(_ context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Server", "Start", "gateway already running")
	}

	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Info("gateway listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("gateway server failed", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "Server", "Stop", "shutdown")
	}
	return nil
}

// RequestsTotal returns the number of API requests handled.
func (s *Server) RequestsTotal() uint64 { return s.requestsTotal.Load() }

// RequestsFailed returns the number of API requests answered 4xx/5xx.
func (s *Server) RequestsFailed() uint64 { return s.requestsFailed.Load() }

// wrap decorates an API handler with request id, CORS, body limits and
// request accounting.
func (s *Server) wrap(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := getOrGenerateRequestID(r)
		w.Header().Set("X-Request-ID", requestID)

		s.requestsTotal.Add(1)

		if len(s.corsOrigins) > 0 {
			s.applyCORS(w, r)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestSize)
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		if rec.status >= 400 {
			s.requestsFailed.Add(1)
		}
		if s.metrics != nil {
			s.metrics.RecordGatewayRequest(route, strconv.Itoa(rec.status))
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// getOrGenerateRequestID extracts the request id from the incoming
// X-Request-ID header or generates a fresh one.
func getOrGenerateRequestID(r *http.Request) string {
	if reqID := r.Header.Get("X-Request-ID"); reqID != "" {
		return reqID
	}
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")

	allowed := false
	for _, allowedOrigin := range s.corsOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}

	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	} else {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// mapErrorToHTTPStatus maps classified errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.IsTransient(err):
		if strings.Contains(err.Error(), "timeout") {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	data, _ := json.Marshal(payload)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"error":  message,
		"status": statusCode,
	})
}
