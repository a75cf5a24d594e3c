package wsrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bijogeorge-arch/couple-chat/pkg/wsconn"
)

func serve(t *testing.T, r *WSRouter) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		r.ServeConn(req.Context(), wsconn.Wrap(conn))
	}))
	t.Cleanup(server.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestRouting(t *testing.T) {
	type greetInput struct {
		Name string `json:"name"`
	}

	r := New()
	greeted := make(chan string, 1)
	Handle(r, "GREET", func(ctx context.Context, conn wsconn.Conn, input greetInput) error {
		greeted <- input.Name
		return nil
	})

	conn := serve(t, r)
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "GREET",
		"payload": map[string]string{"name": "sam"},
	}))

	select {
	case name := <-greeted:
		assert.Equal(t, "sam", name)
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}
}

func TestMessageTypeInContext(t *testing.T) {
	r := New()
	types := make(chan string, 1)
	Handle(r, "PING", func(ctx context.Context, conn wsconn.Conn, _ struct{}) error {
		types <- GetMessageTypeFromCtx(ctx)
		return nil
	})

	conn := serve(t, r)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "PING"}))

	select {
	case messageType := <-types:
		assert.Equal(t, "PING", messageType)
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}
}

func TestUnknownType(t *testing.T) {
	r := New()
	conn := serve(t, r)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "NOPE"}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var out struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "ERROR", out.Type)
}

func TestOnError(t *testing.T) {
	r := New()
	Handle(r, "BOOM", func(ctx context.Context, conn wsconn.Conn, _ struct{}) error {
		return assert.AnError
	})

	handled := make(chan error, 1)
	r.OnError(func(ctx context.Context, conn wsconn.Conn, err error) {
		handled <- err
	})

	conn := serve(t, r)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "BOOM"}))

	select {
	case err := <-handled:
		assert.ErrorIs(t, err, assert.AnError)
	case <-time.After(5 * time.Second):
		t.Fatal("error handler was not called")
	}

	// the read loop survives the handler error
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "BOOM"}))
	select {
	case <-handled:
	case <-time.After(5 * time.Second):
		t.Fatal("read loop did not survive the error")
	}
}

func TestMiddlewareOrder(t *testing.T) {
	r := New()

	var order []string
	mw := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, conn wsconn.Conn, payload json.RawMessage) error {
				order = append(order, name)
				return next(ctx, conn, payload)
			}
		}
	}
	r.Use(mw("first"))
	r.Use(mw("second"))

	done := make(chan struct{}, 1)
	Handle(r, "GO", func(ctx context.Context, conn wsconn.Conn, _ struct{}) error {
		order = append(order, "handler")
		done <- struct{}{}
		return nil
	})

	conn := serve(t, r)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "GO"}))

	select {
	case <-done:
		assert.Equal(t, []string{"first", "second", "handler"}, order)
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}
}

func TestMiddlewareComposedOnce(t *testing.T) {
	r := New()

	var compositions atomic.Int64
	r.Use(func(next HandlerFunc) HandlerFunc {
		compositions.Add(1)
		return next
	})

	handled := make(chan struct{}, 16)
	Handle(r, "GO", func(ctx context.Context, conn wsconn.Conn, _ struct{}) error {
		handled <- struct{}{}
		return nil
	})

	conn := serve(t, r)
	const messages = 10
	for n := 0; n < messages; n++ {
		require.NoError(t, conn.WriteJSON(map[string]any{"type": "GO"}))
	}
	for n := 0; n < messages; n++ {
		select {
		case <-handled:
		case <-time.After(5 * time.Second):
			t.Fatal("handler was not called")
		}
	}

	// one composition per registered route at connection setup, never
	// per message
	assert.EqualValues(t, 1, compositions.Load())
}
