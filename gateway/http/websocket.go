package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingPeriod   = 30 * time.Second
)

// refreshFrame is the one message type pushed to the browser. It tells
// the client its view is stale; the client re-queries through the REST
// endpoints.
type refreshFrame struct {
	Type string `json:"type"`
}

// handleWebsocket upgrades the connection and pushes one frame per
// refresh notification until the client goes away.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return s.originAllowed(r) },
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.WebsocketClients.Inc()
		defer s.metrics.WebsocketClients.Dec()
	}

	notifications, cancel := s.session.Bus().Subscribe()
	defer cancel()

	// The client never sends application data; the read loop only
	// notices the connection closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case _, ok := <-notifications:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(refreshFrame{Type: "refresh"}); err != nil {
				s.logger.Debug("websocket push failed", "error", err)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// originAllowed applies the CORS origin list to websocket upgrades. An
// empty list allows same-host requests only, matching the upgrader
// default.
func (s *Server) originAllowed(r *http.Request) bool {
	if len(s.corsOrigins) == 0 {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := r.URL.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	}

	origin := r.Header.Get("Origin")
	for _, allowed := range s.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
