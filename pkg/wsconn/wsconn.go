// Package wsconn wraps a gorilla connection with write serialization.
// A member's connection is written to from whichever member's read-loop
// goroutine handled the triggering message, so two goroutines can
// target the same connection at once; gorilla permits only one writer.
package wsconn

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeWriteTimeout = 5 * time.Second

// Conn is the connection surface the room layers use. Implementations
// must be safe for concurrent writers.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	WriteClose(code int, text string) error
	Close() error
}

type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

// Wrap serializes writes to ws. Wrap a connection exactly once and
// share the result; two wrappers around one connection do not exclude
// each other.
func Wrap(ws *websocket.Conn) Conn {
	return &conn{ws: ws}
}

// ReadJSON is not serialized: a connection has a single read-loop
// goroutine.
func (c *conn) ReadJSON(v any) error {
	return c.ws.ReadJSON(v)
}

func (c *conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ws.WriteJSON(v)
}

// WriteClose sends a close frame with the given code and text. Control
// writes need no lock, gorilla serializes them against data writes.
func (c *conn) WriteClose(code int, text string) error {
	message := websocket.FormatCloseMessage(code, text)
	return c.ws.WriteControl(websocket.CloseMessage, message, time.Now().Add(closeWriteTimeout))
}

func (c *conn) Close() error {
	return c.ws.Close()
}
