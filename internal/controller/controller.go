package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/bijogeorge-arch/couple-chat/internal/service/room"
	"github.com/bijogeorge-arch/couple-chat/pkg/validator"
	"github.com/bijogeorge-arch/couple-chat/pkg/wsrouter"
)

type iRoomService interface {
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	ConnectMember(context.Context, *room.ConnectMemberParams) error
	DisconnectMember(context.Context, *room.DisconnectMemberParams) (room.DisconnectMemberResponse, error)
	PrepareHandshake(ctx context.Context, roomId string) (room.PrepareHandshakeResponse, error)
	GetRoomState(ctx context.Context, roomId string) (room.RoomState, error)
	SetRoomPassword(context.Context, *room.SetRoomPasswordParams) error
	KickMember(context.Context, *room.KickMemberParams) (room.KickMemberResponse, error)
	RelaySignal(context.Context, *room.RelaySignalParams) (room.RelaySignalResponse, error)
	RetryHandshake(context.Context, *room.RetryHandshakeParams) (room.RetryHandshakeResponse, error)
	SendReaction(context.Context, *room.SendReactionParams) (room.SendReactionResponse, error)
	ChangeTheme(context.Context, *room.ChangeThemeParams) (room.ChangeThemeResponse, error)
	ChangeCinemaMode(context.Context, *room.ChangeCinemaModeParams) (room.ChangeCinemaModeResponse, error)
	SendMessage(context.Context, *room.SendMessageParams) (room.SendMessageResponse, error)
	UpdateTyping(context.Context, *room.UpdateTypingParams) (room.UpdateTypingResponse, error)
	PlayVideo(context.Context, *room.PlayVideoParams) (room.PlayerStateResponse, error)
	PauseVideo(context.Context, *room.PauseVideoParams) (room.PlayerStateResponse, error)
	SeekVideo(context.Context, *room.SeekVideoParams) (room.PlayerStateResponse, error)
	RequestSync(context.Context, *room.RequestSyncParams) (room.RequestSyncResponse, error)
	RespondSync(context.Context, *room.RespondSyncParams) (room.PlayerStateResponse, error)
	StartCountdown(context.Context, *room.StartCountdownParams) (room.StartCountdownResponse, error)
	ChangeVideoUrl(context.Context, *room.ChangeVideoUrlParams) (room.PlayerStateResponse, error)
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		logger:      logger,
	}

	c.wsmux = c.getWSRouter()

	return &c
}
