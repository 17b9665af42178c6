// ABOUTME: WebSocket client source for notification payloads pushed by a remote server.
// ABOUTME: Handles bearer authentication and reconnection with exponential backoff.

package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketSource reads one JSON payload per WebSocket message.
type WebSocketSource struct {
	url    string
	secret string
	logger *slog.Logger
	dialer *websocket.Dialer

	// Reconnection settings
	MinReconnectDelay time.Duration
	MaxReconnectDelay time.Duration

	// Connection callbacks
	OnConnect    func()
	OnDisconnect func()
}

// NewWebSocketSource returns a Source for the given server. An empty secret
// sends no Authorization header.
func NewWebSocketSource(url, secret string, logger *slog.Logger) *WebSocketSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &WebSocketSource{
		url:               url,
		secret:            secret,
		logger:            logger,
		dialer:            websocket.DefaultDialer,
		MinReconnectDelay: time.Second,
		MaxReconnectDelay: 30 * time.Second,
	}
}

func (s *WebSocketSource) Describe() string {
	return s.url
}

// Run dials the server and reads until ctx is cancelled. Only the first
// dial failure is returned; later drops reconnect with backoff.
func (s *WebSocketSource) Run(ctx context.Context, handle Handler) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", s.url, err)
	}

	for {
		s.readLoop(ctx, conn, handle)
		if ctx.Err() != nil {
			return nil
		}

		conn = s.reconnect(ctx)
		if conn == nil {
			return nil
		}
	}
}

func (s *WebSocketSource) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if s.secret != "" {
		header.Set("Authorization", "Bearer "+s.secret)
	}
	conn, resp, err := s.dialer.DialContext(ctx, s.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w (HTTP %d)", err, resp.StatusCode)
		}
		return nil, err
	}

	if s.OnConnect != nil {
		s.OnConnect()
	}
	return conn, nil
}

// readLoop delivers messages until the connection fails or ctx ends.
func (s *WebSocketSource) readLoop(ctx context.Context, conn *websocket.Conn, handle Handler) {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer func() {
		stop()
		conn.Close()
		if s.OnDisconnect != nil {
			s.OnDisconnect()
		}
	}()

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("websocket read failed", slog.String("url", s.url), slog.Any("error", err))
			}
			return
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		handle(ctx, msg)
	}
}

// reconnect retries with exponential backoff. It returns nil once ctx ends.
func (s *WebSocketSource) reconnect(ctx context.Context) *websocket.Conn {
	delay := s.MinReconnectDelay

	for {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		s.logger.Info("reconnecting", slog.String("url", s.url))
		conn, err := s.dial(ctx)
		if err == nil {
			return conn
		}
		if ctx.Err() != nil {
			return nil
		}

		delay *= 2
		if delay > s.MaxReconnectDelay {
			delay = s.MaxReconnectDelay
		}
		s.logger.Warn("reconnection failed", slog.Any("error", err), slog.Duration("retry_in", delay))
	}
}
