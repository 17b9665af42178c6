// ABOUTME: Tests for the WebSocket payload source.
// ABOUTME: Covers authentication, delivery, reconnection and shutdown.

package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pushServer accepts WebSocket clients that present the secret and writes
// each connection's scripted messages, then optionally hangs up.
type pushServer struct {
	secret  string
	scripts [][]string
	hangup  bool

	mu    sync.Mutex
	conns int
}

func (p *pushServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+p.secret {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	up := websocket.Upgrader{}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	p.mu.Lock()
	n := p.conns
	p.conns++
	p.mu.Unlock()

	if n < len(p.scripts) {
		for _, m := range p.scripts[n] {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
	}
	if p.hangup && n < len(p.scripts)-1 {
		return
	}
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func collect(n int) (Handler, <-chan string) {
	out := make(chan string, n)
	return func(_ context.Context, payload []byte) {
		out <- string(payload)
	}, out
}

func TestWebSocketSourceDeliversInOrder(t *testing.T) {
	ts := httptest.NewServer(&pushServer{secret: "s3cret", scripts: [][]string{{`{"n":1}`, `{"n":2}`, `{"n":3}`}}})
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handle, got := collect(3)
	src := NewWebSocketSource(wsURL(ts), "s3cret", nil)
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, handle) }()

	for _, want := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		select {
		case p := <-got:
			assert.Equal(t, want, p)
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for %s", want)
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWebSocketSourceAuthFailure(t *testing.T) {
	ts := httptest.NewServer(&pushServer{secret: "right"})
	defer ts.Close()

	err := NewWebSocketSource(wsURL(ts), "wrong", nil).Run(context.Background(), func(context.Context, []byte) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestWebSocketSourceInitialDialFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(ts)
	ts.Close()

	err := NewWebSocketSource(url, "", nil).Run(context.Background(), func(context.Context, []byte) {})
	assert.Error(t, err)
}

func TestWebSocketSourceReconnects(t *testing.T) {
	srv := &pushServer{secret: "s", hangup: true, scripts: [][]string{{"first"}, {"second"}}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	src := NewWebSocketSource(wsURL(ts), "s", nil)
	src.MinReconnectDelay = 10 * time.Millisecond
	src.MaxReconnectDelay = 50 * time.Millisecond
	src.OnConnect = func() {
		mu.Lock()
		events = append(events, "connected")
		mu.Unlock()
	}
	src.OnDisconnect = func() {
		mu.Lock()
		events = append(events, "disconnected")
		mu.Unlock()
	}

	handle, got := collect(2)
	go func() { _ = src.Run(ctx, handle) }()

	for _, want := range []string{"first", "second"} {
		select {
		case p := <-got:
			assert.Equal(t, want, p)
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for %s", want)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, []string{"connected", "disconnected", "connected"}, events[:3])
}

func TestWebSocketSourceDescribe(t *testing.T) {
	if got := NewWebSocketSource("ws://host:8080/ws", "", nil).Describe(); got != "ws://host:8080/ws" {
		t.Errorf("Describe() = %q", got)
	}
}
