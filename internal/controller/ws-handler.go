package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/bijogeorge-arch/couple-chat/internal/service/room"
	"github.com/bijogeorge-arch/couple-chat/pkg/wsconn"
)

type EmptyInput struct{}

func (c controller) handleAlive(_ context.Context, _ wsconn.Conn, _ EmptyInput) error {
	return nil
}

type SignalInput struct {
	TargetId uuid.UUID       `json:"target_id"`
	Payload  json.RawMessage `json:"payload"`
}

func (c controller) relaySignal(ctx context.Context, outputType string, input SignalInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	if input.TargetId == uuid.Nil {
		return fmt.Errorf("relay signal: %w", room.ErrInvalidTarget)
	}

	relayResp, err := c.roomService.RelaySignal(ctx, &room.RelaySignalParams{
		TargetId: input.TargetId.String(),
		SenderId: memberId,
		RoomId:   roomId,
		Payload:  input.Payload,
	})
	if err != nil {
		return fmt.Errorf("failed to relay signal: %w", err)
	}

	if err := c.writeToConn(ctx, relayResp.TargetConn, &Output{
		Type: outputType,
		Payload: map[string]any{
			"sender_id": memberId,
			"payload":   input.Payload,
		},
	}); err != nil {
		return fmt.Errorf("failed to write to conn: %w", err)
	}

	return nil
}

func (c controller) handleOffer(ctx context.Context, _ wsconn.Conn, input SignalInput) error {
	return c.relaySignal(ctx, "OFFER", input)
}

func (c controller) handleAnswer(ctx context.Context, _ wsconn.Conn, input SignalInput) error {
	return c.relaySignal(ctx, "ANSWER", input)
}

func (c controller) handleIceCandidate(ctx context.Context, _ wsconn.Conn, input SignalInput) error {
	return c.relaySignal(ctx, "ICE_CANDIDATE", input)
}

type RetryHandshakeInput struct {
	TargetId uuid.UUID `json:"target_id"`
}

func (c controller) handleRetryHandshake(ctx context.Context, _ wsconn.Conn, input RetryHandshakeInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	if input.TargetId == uuid.Nil {
		return fmt.Errorf("retry handshake: %w", room.ErrInvalidTarget)
	}

	retryResp, err := c.roomService.RetryHandshake(ctx, &room.RetryHandshakeParams{
		TargetId: input.TargetId.String(),
		SenderId: memberId,
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to retry handshake: %w", err)
	}

	if err := c.broadcast(ctx, retryResp.Conns, &Output{
		Type: "ROOM_READY",
		Payload: map[string]any{
			"initiator_id": retryResp.InitiatorId,
			"responder_id": retryResp.ResponderId,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast room ready: %w", err)
	}

	return nil
}

type SetPasswordInput struct {
	Password string `json:"password" validate:"required,max=64"`
}

func (c controller) handleSetPassword(ctx context.Context, _ wsconn.Conn, input SetPasswordInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("validation error: %v", validationErrors)
	}

	if err := c.roomService.SetRoomPassword(ctx, &room.SetRoomPasswordParams{
		SenderId: memberId,
		RoomId:   roomId,
		Password: input.Password,
	}); err != nil {
		return fmt.Errorf("failed to set room password: %w", err)
	}

	return nil
}

type KickMemberInput struct {
	MemberId uuid.UUID `json:"member_id"`
}

func (c controller) handleKickMember(ctx context.Context, _ wsconn.Conn, input KickMemberInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	if input.MemberId == uuid.Nil {
		return fmt.Errorf("kick member: %w", room.ErrInvalidTarget)
	}

	kickResp, err := c.roomService.KickMember(ctx, &room.KickMemberParams{
		KickedMemberId: input.MemberId.String(),
		SenderId:       memberId,
		RoomId:         roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to kick member: %w", err)
	}

	// close with specific code; the registry slot is released when the
	// kicked connection's read loop exits
	kickResp.Conn.WriteClose(4001, "kicked")

	return nil
}

type SendReactionInput struct {
	Emoji string  `json:"emoji" validate:"required,max=16"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

func (c controller) handleSendReaction(ctx context.Context, _ wsconn.Conn, input SendReactionInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("validation error: %v", validationErrors)
	}

	sendReactionResp, err := c.roomService.SendReaction(ctx, &room.SendReactionParams{
		Emoji:    input.Emoji,
		X:        input.X,
		Y:        input.Y,
		SenderId: memberId,
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to send reaction: %w", err)
	}

	if err := c.broadcast(ctx, sendReactionResp.Conns, &Output{
		Type: "REACTION_RECEIVED",
		Payload: map[string]any{
			"sender_id": memberId,
			"emoji":     input.Emoji,
			"x":         input.X,
			"y":         input.Y,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast reaction: %w", err)
	}

	return nil
}

type ChangeThemeInput struct {
	Theme string `json:"theme" validate:"required,max=32"`
}

func (c controller) handleChangeTheme(ctx context.Context, _ wsconn.Conn, input ChangeThemeInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("validation error: %v", validationErrors)
	}

	changeThemeResp, err := c.roomService.ChangeTheme(ctx, &room.ChangeThemeParams{
		Theme:    input.Theme,
		SenderId: memberId,
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to change theme: %w", err)
	}

	if err := c.broadcast(ctx, changeThemeResp.Conns, &Output{
		Type: "THEME_UPDATED",
		Payload: map[string]any{
			"theme": input.Theme,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast theme updated: %w", err)
	}

	return nil
}

type CinemaModeInput struct {
	CinemaMode bool `json:"cinema_mode"`
}

func (c controller) handleCinemaMode(ctx context.Context, _ wsconn.Conn, input CinemaModeInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	changeCinemaModeResp, err := c.roomService.ChangeCinemaMode(ctx, &room.ChangeCinemaModeParams{
		CinemaMode: input.CinemaMode,
		SenderId:   memberId,
		RoomId:     roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to change cinema mode: %w", err)
	}

	if err := c.broadcast(ctx, changeCinemaModeResp.Conns, &Output{
		Type: "CINEMA_MODE_UPDATED",
		Payload: map[string]any{
			"cinema_mode": input.CinemaMode,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast cinema mode updated: %w", err)
	}

	return nil
}

type SendMessageInput struct {
	Message   string `json:"message" validate:"required,max=2000"`
	Timestamp int64  `json:"timestamp"`
}

func (c controller) handleSendMessage(ctx context.Context, _ wsconn.Conn, input SendMessageInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("validation error: %v", validationErrors)
	}

	sendMessageResp, err := c.roomService.SendMessage(ctx, &room.SendMessageParams{
		Message:   input.Message,
		Timestamp: input.Timestamp,
		SenderId:  memberId,
		RoomId:    roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	if err := c.broadcast(ctx, sendMessageResp.Conns, &Output{
		Type: "MESSAGE_RECEIVED",
		Payload: map[string]any{
			"sender_id": memberId,
			"message":   input.Message,
			"timestamp": input.Timestamp,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast message: %w", err)
	}

	return nil
}

func (c controller) updateTyping(ctx context.Context, isTyping bool) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	updateTypingResp, err := c.roomService.UpdateTyping(ctx, &room.UpdateTypingParams{
		IsTyping: isTyping,
		SenderId: memberId,
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to update typing: %w", err)
	}

	outputType := "TYPING_STOP"
	if isTyping {
		outputType = "TYPING_START"
	}

	if err := c.broadcast(ctx, updateTypingResp.Conns, &Output{
		Type: outputType,
		Payload: map[string]any{
			"member_id": memberId,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast typing: %w", err)
	}

	return nil
}

func (c controller) handleTypingStart(ctx context.Context, _ wsconn.Conn, _ EmptyInput) error {
	return c.updateTyping(ctx, true)
}

func (c controller) handleTypingStop(ctx context.Context, _ wsconn.Conn, _ EmptyInput) error {
	return c.updateTyping(ctx, false)
}

type PlayerTimeInput struct {
	CurrentTime float64 `json:"current_time"`
}

func (c controller) handlePlayVideo(ctx context.Context, _ wsconn.Conn, input PlayerTimeInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	playVideoResp, err := c.roomService.PlayVideo(ctx, &room.PlayVideoParams{
		CurrentTime: input.CurrentTime,
		SenderId:    memberId,
		RoomId:      roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to play video: %w", err)
	}

	if err := c.broadcast(ctx, playVideoResp.Conns, &Output{
		Type: "PLAY_VIDEO",
		Payload: map[string]any{
			"player": playVideoResp.Player,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast play video: %w", err)
	}

	return nil
}

func (c controller) handlePauseVideo(ctx context.Context, _ wsconn.Conn, input PlayerTimeInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	pauseVideoResp, err := c.roomService.PauseVideo(ctx, &room.PauseVideoParams{
		CurrentTime: input.CurrentTime,
		SenderId:    memberId,
		RoomId:      roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to pause video: %w", err)
	}

	if err := c.broadcast(ctx, pauseVideoResp.Conns, &Output{
		Type: "PAUSE_VIDEO",
		Payload: map[string]any{
			"player": pauseVideoResp.Player,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast pause video: %w", err)
	}

	return nil
}

func (c controller) handleSeekVideo(ctx context.Context, _ wsconn.Conn, input PlayerTimeInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	seekVideoResp, err := c.roomService.SeekVideo(ctx, &room.SeekVideoParams{
		CurrentTime: input.CurrentTime,
		SenderId:    memberId,
		RoomId:      roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to seek video: %w", err)
	}

	if err := c.broadcast(ctx, seekVideoResp.Conns, &Output{
		Type: "SEEK_VIDEO",
		Payload: map[string]any{
			"player": seekVideoResp.Player,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast seek video: %w", err)
	}

	return nil
}

func (c controller) handleSyncRequest(ctx context.Context, _ wsconn.Conn, _ EmptyInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	requestSyncResp, err := c.roomService.RequestSync(ctx, &room.RequestSyncParams{
		SenderId: memberId,
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to request sync: %w", err)
	}

	if err := c.writeToConn(ctx, requestSyncResp.HostConn, &Output{
		Type: "SYNC_REQUEST",
		Payload: map[string]any{
			"member_id": memberId,
		},
	}); err != nil {
		return fmt.Errorf("failed to write to conn: %w", err)
	}

	return nil
}

type SyncResponseInput struct {
	CurrentTime float64 `json:"current_time"`
	IsPlaying   bool    `json:"is_playing"`
}

func (c controller) handleSyncResponse(ctx context.Context, _ wsconn.Conn, input SyncResponseInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	respondSyncResp, err := c.roomService.RespondSync(ctx, &room.RespondSyncParams{
		CurrentTime: input.CurrentTime,
		IsPlaying:   input.IsPlaying,
		SenderId:    memberId,
		RoomId:      roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to respond sync: %w", err)
	}

	if err := c.broadcast(ctx, respondSyncResp.Conns, &Output{
		Type: "SYNC_RESPONSE",
		Payload: map[string]any{
			"current_time": input.CurrentTime,
			"is_playing":   input.IsPlaying,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast sync response: %w", err)
	}

	return nil
}

type CountdownStartInput struct {
	Duration int `json:"duration"`
}

func (c controller) handleCountdownStart(ctx context.Context, _ wsconn.Conn, input CountdownStartInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	startCountdownResp, err := c.roomService.StartCountdown(ctx, &room.StartCountdownParams{
		Duration: input.Duration,
		SenderId: memberId,
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to start countdown: %w", err)
	}

	if err := c.broadcast(ctx, startCountdownResp.Conns, &Output{
		Type: "COUNTDOWN_STARTED",
		Payload: map[string]any{
			"duration": startCountdownResp.Duration,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast countdown started: %w", err)
	}

	return nil
}

type VideoUrlChangeInput struct {
	VideoUrl string `json:"video_url" validate:"required,max=2048"`
}

func (c controller) handleVideoUrlChange(ctx context.Context, _ wsconn.Conn, input VideoUrlChangeInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("validation error: %v", validationErrors)
	}

	changeVideoUrlResp, err := c.roomService.ChangeVideoUrl(ctx, &room.ChangeVideoUrlParams{
		VideoUrl: input.VideoUrl,
		SenderId: memberId,
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to change video url: %w", err)
	}

	if err := c.broadcast(ctx, changeVideoUrlResp.Conns, &Output{
		Type: "VIDEO_URL_CHANGED",
		Payload: map[string]any{
			"player": changeVideoUrlResp.Player,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast video url changed: %w", err)
	}

	return nil
}
