package room

import (
	"context"

	"github.com/bijogeorge-arch/couple-chat/pkg/wsconn"
)

type SendReactionParams struct {
	Emoji    string
	X        float64
	Y        float64
	SenderId string
	RoomId   string
}

type SendReactionResponse struct {
	Conns []wsconn.Conn
}

// Reactions go to every member including the sender, matching the
// original broadcast semantics; the client expires them after a fixed
// display duration.
func (s service) SendReaction(ctx context.Context, params *SendReactionParams) (SendReactionResponse, error) {
	if err := s.checkMembership(ctx, params.RoomId, params.SenderId); err != nil {
		return SendReactionResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get conns by room id", "error", err)
		return SendReactionResponse{}, err
	}

	return SendReactionResponse{
		Conns: conns,
	}, nil
}

type ChangeThemeParams struct {
	Theme    string
	SenderId string
	RoomId   string
}

type ChangeThemeResponse struct {
	Conns []wsconn.Conn
}

// ChangeTheme is last-write-wins. The theme is stored so the join
// snapshot can replay it to a late joiner.
func (s service) ChangeTheme(ctx context.Context, params *ChangeThemeParams) (ChangeThemeResponse, error) {
	if err := s.checkMembership(ctx, params.RoomId, params.SenderId); err != nil {
		return ChangeThemeResponse{}, err
	}

	if err := s.roomRepo.SetTheme(ctx, params.RoomId, params.Theme); err != nil {
		s.logger.InfoContext(ctx, "failed to set theme", "error", err)
		return ChangeThemeResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get conns by room id", "error", err)
		return ChangeThemeResponse{}, err
	}

	return ChangeThemeResponse{
		Conns: conns,
	}, nil
}

type ChangeCinemaModeParams struct {
	CinemaMode bool
	SenderId   string
	RoomId     string
}

type ChangeCinemaModeResponse struct {
	Conns []wsconn.Conn
}

func (s service) ChangeCinemaMode(ctx context.Context, params *ChangeCinemaModeParams) (ChangeCinemaModeResponse, error) {
	if err := s.checkMembership(ctx, params.RoomId, params.SenderId); err != nil {
		return ChangeCinemaModeResponse{}, err
	}

	if err := s.roomRepo.SetCinemaMode(ctx, params.RoomId, params.CinemaMode); err != nil {
		s.logger.InfoContext(ctx, "failed to set cinema mode", "error", err)
		return ChangeCinemaModeResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get conns by room id", "error", err)
		return ChangeCinemaModeResponse{}, err
	}

	return ChangeCinemaModeResponse{
		Conns: conns,
	}, nil
}

type SendMessageParams struct {
	Message   string
	Timestamp int64
	SenderId  string
	RoomId    string
}

type SendMessageResponse struct {
	Conns []wsconn.Conn
}

// Chat messages are relayed to the other member only and never stored.
func (s service) SendMessage(ctx context.Context, params *SendMessageParams) (SendMessageResponse, error) {
	if err := s.checkMembership(ctx, params.RoomId, params.SenderId); err != nil {
		return SendMessageResponse{}, err
	}

	conns, err := s.getOtherConns(ctx, params.RoomId, params.SenderId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get conns", "error", err)
		return SendMessageResponse{}, err
	}

	return SendMessageResponse{
		Conns: conns,
	}, nil
}

type UpdateTypingParams struct {
	IsTyping bool
	SenderId string
	RoomId   string
}

type UpdateTypingResponse struct {
	Conns []wsconn.Conn
}

// Typing indicators are advisory: the relay does not enforce that a
// stop follows a start, the receiving UI times them out.
func (s service) UpdateTyping(ctx context.Context, params *UpdateTypingParams) (UpdateTypingResponse, error) {
	if err := s.checkMembership(ctx, params.RoomId, params.SenderId); err != nil {
		return UpdateTypingResponse{}, err
	}

	conns, err := s.getOtherConns(ctx, params.RoomId, params.SenderId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get conns", "error", err)
		return UpdateTypingResponse{}, err
	}

	return UpdateTypingResponse{
		Conns: conns,
	}, nil
}
