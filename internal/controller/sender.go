package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bijogeorge-arch/couple-chat/pkg/wsconn"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c controller) writeToConn(ctx context.Context, conn wsconn.Conn, output *Output) error {
	if conn == nil {
		return nil
	}

	if err := conn.WriteJSON(output); err != nil {
		c.logger.InfoContext(ctx, "failed to write to conn", "error", err)
		return err
	}

	return nil
}

// broadcast is fire-and-forget: a failed write to one conn is logged
// and does not stop delivery to the others.
func (c controller) broadcast(ctx context.Context, conns []wsconn.Conn, output *Output) error {
	for _, conn := range conns {
		if err := conn.WriteJSON(output); err != nil {
			c.logger.InfoContext(ctx, "failed to write to conn", "error", err)
		}
	}

	return nil
}

func (c controller) broadcastExcept(ctx context.Context, conns []wsconn.Conn, except wsconn.Conn, output *Output) error {
	for _, conn := range conns {
		if conn == except {
			continue
		}

		if err := conn.WriteJSON(output); err != nil {
			c.logger.InfoContext(ctx, "failed to write to conn", "error", err)
		}
	}

	return nil
}

func (c controller) writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
