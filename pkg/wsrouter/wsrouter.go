package wsrouter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bijogeorge-arch/couple-chat/pkg/wsconn"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn wsconn.Conn, payload json.RawMessage) error

type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler is called when a handler returns an error. The read loop
// continues afterwards, so a single bad message never kills the connection.
type ErrorHandler func(ctx context.Context, conn wsconn.Conn, err error)

type WSRouter struct {
	routes      map[string]HandlerFunc
	middlewares []Middleware
	onError     ErrorHandler
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

func (r *WSRouter) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *WSRouter) OnError(handler ErrorHandler) {
	r.onError = handler
}

// Handle registers a typed handler for messageType. The payload is
// unmarshalled into T before the handler runs.
func Handle[T any](r *WSRouter, messageType string, handler func(ctx context.Context, conn wsconn.Conn, input T) error) {
	r.routes[messageType] = func(ctx context.Context, conn wsconn.Conn, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &input); err != nil {
				return fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}

		return handler(ctx, conn, input)
	}
}

// wrap composes the middleware chain around handler, outermost first.
func (r *WSRouter) wrap(handler HandlerFunc) HandlerFunc {
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	return handler
}

// ServeConn reads messages from the connection until it closes and routes
// them to the registered handlers. Messages from a single connection are
// handled sequentially, so per-sender ordering is preserved.
func (r *WSRouter) ServeConn(ctx context.Context, conn wsconn.Conn) error {
	defer conn.Close()

	// the chain is composed once per connection, dispatch is a map
	// lookup
	routes := make(map[string]HandlerFunc, len(r.routes))
	for messageType, handler := range r.routes {
		routes[messageType] = r.wrap(handler)
	}

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		handler, exists := routes[msg.Type]
		if !exists {
			conn.WriteJSON(map[string]any{
				"type":    "ERROR",
				"payload": map[string]string{"message": "unknown message type"},
			})
			continue
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)
		if err := handler(msgCtx, conn, msg.Payload); err != nil {
			if r.onError != nil {
				r.onError(msgCtx, conn, err)
			}
		}
	}
}
