package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmbrian/graph-ical-sub001/notify"
)

func dialWebsocket(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebsocketPushesRefreshFrames(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWebsocket(t, srv)

	// Give the handler a moment to subscribe before publishing.
	require.Eventually(t, func() bool {
		return srv.session.Bus().Subscribers() == 1
	}, time.Second, 10*time.Millisecond)

	srv.session.Bus().Publish(notify.Refresh{})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame refreshFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "refresh", frame.Type)
}

func TestWebsocketEveryClientIsNotified(t *testing.T) {
	srv := newTestServer(t)
	first := dialWebsocket(t, srv)
	second := dialWebsocket(t, srv)

	require.Eventually(t, func() bool {
		return srv.session.Bus().Subscribers() == 2
	}, time.Second, 10*time.Millisecond)

	srv.session.Bus().Publish(notify.Refresh{})

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var frame refreshFrame
		require.NoError(t, conn.ReadJSON(&frame))
		assert.Equal(t, "refresh", frame.Type)
	}
}

func TestWebsocketClientCloseUnsubscribes(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWebsocket(t, srv)

	require.Eventually(t, func() bool {
		return srv.session.Bus().Subscribers() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return srv.session.Bus().Subscribers() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
