package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/bijogeorge-arch/couple-chat/internal/service/room"
	"github.com/bijogeorge-arch/couple-chat/pkg/ctxlogger"
	"github.com/bijogeorge-arch/couple-chat/pkg/wsconn"
	"github.com/bijogeorge-arch/couple-chat/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.loggerWSMw())
	mux.OnError(c.handleWSError)

	wsrouter.Handle(mux, "ALIVE", c.handleAlive)

	// handshake
	wsrouter.Handle(mux, "OFFER", c.handleOffer)
	wsrouter.Handle(mux, "ANSWER", c.handleAnswer)
	wsrouter.Handle(mux, "ICE_CANDIDATE", c.handleIceCandidate)
	wsrouter.Handle(mux, "RETRY_HANDSHAKE", c.handleRetryHandshake)

	// room
	wsrouter.Handle(mux, "SET_PASSWORD", c.handleSetPassword)
	wsrouter.Handle(mux, "KICK_MEMBER", c.handleKickMember)

	// session events
	wsrouter.Handle(mux, "SEND_REACTION", c.handleSendReaction)
	wsrouter.Handle(mux, "CHANGE_THEME", c.handleChangeTheme)
	wsrouter.Handle(mux, "CINEMA_MODE", c.handleCinemaMode)
	wsrouter.Handle(mux, "SEND_MESSAGE", c.handleSendMessage)
	wsrouter.Handle(mux, "TYPING_START", c.handleTypingStart)
	wsrouter.Handle(mux, "TYPING_STOP", c.handleTypingStop)

	// player
	wsrouter.Handle(mux, "PLAY_VIDEO", c.handlePlayVideo)
	wsrouter.Handle(mux, "PAUSE_VIDEO", c.handlePauseVideo)
	wsrouter.Handle(mux, "SEEK_VIDEO", c.handleSeekVideo)
	wsrouter.Handle(mux, "SYNC_REQUEST", c.handleSyncRequest)
	wsrouter.Handle(mux, "SYNC_RESPONSE", c.handleSyncResponse)
	wsrouter.Handle(mux, "COUNTDOWN_START", c.handleCountdownStart)
	wsrouter.Handle(mux, "VIDEO_URL_CHANGE", c.handleVideoUrlChange)

	return mux
}

func (c controller) loggerWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc) wsrouter.HandlerFunc {
		return func(ctx context.Context, conn wsconn.Conn, payload json.RawMessage) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
			c.logger.DebugContext(ctx, "websocket message received")

			start := time.Now()
			err := next(ctx, conn, payload)

			c.logger.DebugContext(ctx, "websocket message handled",
				"processing_time_us", time.Since(start).Microseconds(),
			)

			return err
		}
	}
}

// handleWSError answers the sender with an error frame. Known protocol
// errors surface their message; anything else is reported as internal,
// and the read loop keeps running either way.
func (c controller) handleWSError(ctx context.Context, conn wsconn.Conn, err error) {
	c.logger.InfoContext(ctx, "failed to handle websocket message", "error", err)

	message := "internal error"
	for _, known := range []error{
		room.ErrRoomFull,
		room.ErrAccessDenied,
		room.ErrInvalidTarget,
		room.ErrPeerUnreachable,
		room.ErrPermissionDenied,
		room.ErrMemberNotFound,
	} {
		if errors.Is(err, known) {
			message = known.Error()
			break
		}
	}

	if err := c.writeToConn(ctx, conn, &Output{
		Type: "ERROR",
		Payload: map[string]any{
			"message": message,
		},
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to write error", "error", err)
	}
}
