package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bijogeorge-arch/couple-chat/internal/service/room"
	"github.com/bijogeorge-arch/couple-chat/pkg/ctxlogger"
	"github.com/bijogeorge-arch/couple-chat/pkg/wsconn"
)

// joinRoom is the single entry point for a participant: the room is
// created implicitly on the first join, the password gate runs before
// admission, and a rejected join never upgrades to a websocket.
func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		c.writeJSONError(w, http.StatusNotFound, errors.New("room not found"))
		return
	}

	joinRoomResp, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		RoomId:   roomId,
		Password: r.URL.Query().Get("password"),
	})
	if err != nil {
		c.logger.DebugContext(r.Context(), "failed to join room", "error", err)
		switch {
		case errors.Is(err, room.ErrRoomFull):
			c.writeJSONError(w, http.StatusConflict, err)
		case errors.Is(err, room.ErrAccessDenied):
			c.writeJSONError(w, http.StatusForbidden, err)
		default:
			c.writeJSONError(w, http.StatusInternalServerError, err)
		}
		return
	}
	defer c.disconnect(r.Context(), joinRoomResp.MemberId, roomId)

	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	// wrapped exactly once here; every later write to this member goes
	// through the same serialized conn
	conn := wsconn.Wrap(ws)
	defer conn.Close()

	if err := c.roomService.ConnectMember(r.Context(), &room.ConnectMemberParams{
		Conn:     conn,
		MemberId: joinRoomResp.MemberId,
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to connect member", "error", err)
		return
	}

	roomState, err := c.roomService.GetRoomState(r.Context(), roomId)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to get room state", "error", err)
		return
	}

	if err := conn.WriteJSON(&Output{
		Type: "JOINED_ROOM",
		Payload: map[string]any{
			"member_id":  joinRoomResp.MemberId,
			"room_id":    roomId,
			"room_state": roomState,
		},
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write json", "error", err)
		return
	}

	if joinRoomResp.MemberCount == 2 {
		c.announceRoomReady(r.Context(), roomId, joinRoomResp.MemberId, conn)
	}

	ctx := context.WithValue(r.Context(), roomIdCtxKey, roomId)
	ctx = context.WithValue(ctx, memberIdCtxKey, joinRoomResp.MemberId)
	ctx = ctxlogger.AppendCtx(ctx,
		slog.String("room_id", roomId),
		slog.String("member_id", joinRoomResp.MemberId),
	)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(r.Context(), "connection closed", "error", err)
		return
	}
}

// announceRoomReady fires exactly once per 1->2 membership transition,
// from the joining connection's goroutine: the peer learns about the
// newcomer, then both sides get the handshake pairing with roles fixed
// by the registry.
func (c controller) announceRoomReady(ctx context.Context, roomId, joinedMemberId string, joinedConn wsconn.Conn) {
	handshake, err := c.roomService.PrepareHandshake(ctx, roomId)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to prepare handshake", "error", err)
		return
	}

	if err := c.broadcastExcept(ctx, handshake.Conns, joinedConn, &Output{
		Type: "USER_CONNECTED",
		Payload: map[string]any{
			"member_id": joinedMemberId,
		},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to broadcast user connected", "error", err)
	}

	if err := c.broadcast(ctx, handshake.Conns, &Output{
		Type: "ROOM_READY",
		Payload: map[string]any{
			"initiator_id": handshake.InitiatorId,
			"responder_id": handshake.ResponderId,
		},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to broadcast room ready", "error", err)
	}
}

func (c controller) disconnect(ctx context.Context, memberId, roomId string) {
	disconnectResp, err := c.roomService.DisconnectMember(ctx, &room.DisconnectMemberParams{
		MemberId: memberId,
		RoomId:   roomId,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect member", "error", err)
		return
	}

	if disconnectResp.IsRoomDeleted {
		return
	}

	if err := c.broadcast(ctx, disconnectResp.Conns, &Output{
		Type: "USER_DISCONNECTED",
		Payload: map[string]any{
			"member_id": memberId,
		},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to broadcast user disconnected", "error", err)
	}
}
