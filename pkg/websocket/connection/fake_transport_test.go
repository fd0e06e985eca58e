package connection_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/quantmesh/streamkit/pkg/websocket/connection"
)

var errConnClosed = errors.New("fake: connection closed")

func ctxBG() context.Context { return context.Background() }

// fakeConn is a scriptable transport connection. Inbound frames are fed
// through Deliver; writes are recorded for assertions.
type fakeConn struct {
	inbound chan []byte
	closed  chan struct{}

	mu          sync.Mutex
	written     [][]byte
	pings       int
	pongHandler func(string) error
	closeOnce   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

// Deliver queues an inbound frame for the read loop.
func (c *fakeConn) Deliver(frame []byte) {
	c.inbound <- frame
}

// Pong simulates a pong arriving from the server.
func (c *fakeConn) Pong() {
	c.mu.Lock()
	handler := c.pongHandler
	c.mu.Unlock()
	if handler != nil {
		_ = handler("")
	}
}

// Written returns a copy of all data frames written so far.
func (c *fakeConn) Written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.written))
	copy(out, c.written)
	return out
}

// Pings returns how many ping control frames were written.
func (c *fakeConn) Pings() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case frame := <-c.inbound:
		return connection.TextMessage, frame, nil
	case <-c.closed:
		return 0, nil, errConnClosed
	}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	c.written = append(c.written, buf)
	return nil
}

func (c *fakeConn) WriteControl(messageType int, _ []byte, _ time.Time) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	if messageType == connection.PingMessage {
		c.mu.Lock()
		c.pings++
		c.mu.Unlock()
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) SetPongHandler(h func(appData string) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pongHandler = h
}

// fakeDialer hands out fakeConns, optionally failing the first N dials.
type fakeDialer struct {
	mu       sync.Mutex
	failures int
	dials    int
	conns    []*fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{}
}

// FailNext makes the next n dial attempts fail.
func (d *fakeDialer) FailNext(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures = n
}

// Dials reports how many dial attempts were made.
func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// LastConn returns the most recently dialed connection.
func (d *fakeDialer) LastConn() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

func (d *fakeDialer) DialContext(context.Context, string, http.Header) (connection.Conn, *http.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials++
	if d.failures > 0 {
		d.failures--
		return nil, nil, errors.New("fake: dial refused")
	}

	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil, nil
}
