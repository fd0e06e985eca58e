package connection

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Standard WebSocket message types, re-exported so callers of the transport
// boundary do not import gorilla directly.
const (
	TextMessage = websocket.TextMessage
	PingMessage = websocket.PingMessage
	PongMessage = websocket.PongMessage
)

// gorillaConn adapts gorilla/websocket.Conn to the Conn interface.
type gorillaConn struct {
	conn *websocket.Conn
}

func (g *gorillaConn) ReadMessage() (int, []byte, error) {
	return g.conn.ReadMessage()
}

func (g *gorillaConn) WriteMessage(messageType int, data []byte) error {
	return g.conn.WriteMessage(messageType, data)
}

func (g *gorillaConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return g.conn.WriteControl(messageType, data, deadline)
}

func (g *gorillaConn) Close() error {
	return g.conn.Close()
}

func (g *gorillaConn) SetReadDeadline(t time.Time) error {
	return g.conn.SetReadDeadline(t)
}

func (g *gorillaConn) SetWriteDeadline(t time.Time) error {
	return g.conn.SetWriteDeadline(t)
}

func (g *gorillaConn) SetPongHandler(h func(appData string) error) {
	g.conn.SetPongHandler(h)
}

// gorillaDialer adapts gorilla/websocket.Dialer to the Dialer interface.
type gorillaDialer struct {
	dialer         *websocket.Dialer
	maxMessageSize int64
}

// NewGorillaDialer creates the production dialer backed by gorilla/websocket.
func NewGorillaDialer(config Config) Dialer {
	return &gorillaDialer{
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.HandshakeTimeout,
			ReadBufferSize:   config.ReadBufferSize,
			WriteBufferSize:  config.WriteBufferSize,
		},
		maxMessageSize: config.MaxMessageSize,
	}
}

func (g *gorillaDialer) DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (Conn, *http.Response, error) {
	conn, resp, err := g.dialer.DialContext(ctx, urlStr, requestHeader)
	if err != nil {
		return nil, resp, err
	}

	if g.maxMessageSize > 0 {
		conn.SetReadLimit(g.maxMessageSize)
	}

	return &gorillaConn{conn: conn}, resp, nil
}

// isNormalCloseError reports whether err is a close frame the remote sent as
// part of an orderly teardown rather than a transport fault.
func isNormalCloseError(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
