package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type wsResponse struct {
	upgrader *websocket.Upgrader
	serve    func(context.Context, *websocket.Conn) error
	onError  func(context.Context, error)
}

// WebSocketOption configures a WebSocket response.
type WebSocketOption func(*wsResponse)

// WithWSOriginCheck sets the upgrader's origin check. By default only
// same-origin requests are accepted.
func WithWSOriginCheck(fn func(r *http.Request) bool) WebSocketOption {
	return func(c *wsResponse) {
		c.upgrader.CheckOrigin = fn
	}
}

// WithWSHandshakeTimeout bounds the upgrade handshake.
func WithWSHandshakeTimeout(d time.Duration) WebSocketOption {
	return func(c *wsResponse) {
		c.upgrader.HandshakeTimeout = d
	}
}

// WithWSErrorHandler receives upgrade and serve errors. After the upgrade
// nothing can be written to the client as HTTP any more.
func WithWSErrorHandler(fn func(context.Context, error)) WebSocketOption {
	return func(c *wsResponse) {
		c.onError = fn
	}
}

// WebSocket upgrades the connection and runs serve until it returns.
// The connection is closed afterwards.
func WebSocket(serve func(context.Context, *websocket.Conn) error, opts ...WebSocketOption) Response {
	resp := &wsResponse{
		upgrader: &websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		serve:    serve,
	}
	for _, opt := range opts {
		opt(resp)
	}
	return resp
}

func (c *wsResponse) Render(w http.ResponseWriter, r *http.Request) error {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied with an HTTP error
		c.report(r.Context(), err)
		return nil
	}
	defer conn.Close()

	if err := c.serve(r.Context(), conn); err != nil {
		c.report(r.Context(), err)
	}
	return nil
}

func (c *wsResponse) report(ctx context.Context, err error) {
	if c.onError != nil {
		c.onError(ctx, err)
	}
}
