package room

import (
	"context"
	"time"

	"github.com/bijogeorge-arch/couple-chat/internal/playsync"
	"github.com/bijogeorge-arch/couple-chat/internal/repository/room"
	"github.com/bijogeorge-arch/couple-chat/pkg/wsconn"
)

type PlayerStateResponse struct {
	Player Player
	Conns  []wsconn.Conn
}

// updatePlayer applies a host assertion: host check, one fetch, one
// write. mutate edits the fetched state in place; UpdatedAt is stamped
// here.
func (s service) updatePlayer(ctx context.Context, roomId, senderId string, mutate func(player *room.Player)) (PlayerStateResponse, error) {
	if err := s.checkIfMemberHost(ctx, roomId, senderId); err != nil {
		return PlayerStateResponse{}, err
	}

	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get player", "error", err)
		return PlayerStateResponse{}, err
	}

	mutate(&player)
	player.UpdatedAt = time.Now().Unix()

	if err := s.roomRepo.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		IsPlaying:   player.IsPlaying,
		CurrentTime: player.CurrentTime,
		UpdatedAt:   player.UpdatedAt,
		RoomId:      roomId,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to update player state", "error", err)
		return PlayerStateResponse{}, err
	}

	conns, err := s.getOtherConns(ctx, roomId, senderId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get conns", "error", err)
		return PlayerStateResponse{}, err
	}

	return PlayerStateResponse{
		Player: Player{
			VideoUrl:    player.VideoUrl,
			IsPlaying:   player.IsPlaying,
			CurrentTime: player.CurrentTime,
			UpdatedAt:   player.UpdatedAt,
		},
		Conns: conns,
	}, nil
}

type PlayVideoParams struct {
	CurrentTime float64
	SenderId    string
	RoomId      string
}

// PlayVideo is a host assertion: the follower sets its clock to the
// reported time and starts playing, no acknowledgement expected.
func (s service) PlayVideo(ctx context.Context, params *PlayVideoParams) (PlayerStateResponse, error) {
	return s.updatePlayer(ctx, params.RoomId, params.SenderId, func(player *room.Player) {
		player.IsPlaying = true
		player.CurrentTime = params.CurrentTime
	})
}

type PauseVideoParams struct {
	CurrentTime float64
	SenderId    string
	RoomId      string
}

func (s service) PauseVideo(ctx context.Context, params *PauseVideoParams) (PlayerStateResponse, error) {
	return s.updatePlayer(ctx, params.RoomId, params.SenderId, func(player *room.Player) {
		player.IsPlaying = false
		player.CurrentTime = params.CurrentTime
	})
}

type SeekVideoParams struct {
	CurrentTime float64
	SenderId    string
	RoomId      string
}

// SeekVideo keeps the current play/pause state and jumps the clock.
func (s service) SeekVideo(ctx context.Context, params *SeekVideoParams) (PlayerStateResponse, error) {
	return s.updatePlayer(ctx, params.RoomId, params.SenderId, func(player *room.Player) {
		player.CurrentTime = params.CurrentTime
	})
}

type RequestSyncParams struct {
	SenderId string
	RoomId   string
}

type RequestSyncResponse struct {
	HostId   string
	HostConn wsconn.Conn
}

// RequestSync routes the follower's periodic poll to the host. The poll
// lives on the follower side so it can adapt its own cadence; a lost
// request is recovered by the next interval.
func (s service) RequestSync(ctx context.Context, params *RequestSyncParams) (RequestSyncResponse, error) {
	if err := s.checkMembership(ctx, params.RoomId, params.SenderId); err != nil {
		return RequestSyncResponse{}, err
	}

	rm, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get room", "error", err)
		return RequestSyncResponse{}, err
	}

	if rm.HostId == "" || rm.HostId == params.SenderId {
		return RequestSyncResponse{}, ErrInvalidTarget
	}

	conn, err := s.connRepo.GetConn(rm.HostId)
	if err != nil {
		return RequestSyncResponse{}, ErrPeerUnreachable
	}

	return RequestSyncResponse{
		HostId:   rm.HostId,
		HostConn: conn,
	}, nil
}

type RespondSyncParams struct {
	CurrentTime float64
	IsPlaying   bool
	SenderId    string
	RoomId      string
}

// RespondSync is the host's answer to a sync request. The reported
// state refreshes the room's authoritative copy before being relayed
// to the follower.
func (s service) RespondSync(ctx context.Context, params *RespondSyncParams) (PlayerStateResponse, error) {
	return s.updatePlayer(ctx, params.RoomId, params.SenderId, func(player *room.Player) {
		player.IsPlaying = params.IsPlaying
		player.CurrentTime = params.CurrentTime
	})
}

type StartCountdownParams struct {
	Duration int
	SenderId string
	RoomId   string
}

type StartCountdownResponse struct {
	Duration int
	Conns    []wsconn.Conn
}

// StartCountdown is the best-effort simultaneity primitive: both sides
// render a local countdown and play independently when it hits zero.
func (s service) StartCountdown(ctx context.Context, params *StartCountdownParams) (StartCountdownResponse, error) {
	if err := s.checkIfMemberHost(ctx, params.RoomId, params.SenderId); err != nil {
		return StartCountdownResponse{}, err
	}

	duration := params.Duration
	if duration <= 0 {
		duration = playsync.DefaultCountdownSeconds
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get conns by room id", "error", err)
		return StartCountdownResponse{}, err
	}

	return StartCountdownResponse{
		Duration: duration,
		Conns:    conns,
	}, nil
}

type ChangeVideoUrlParams struct {
	VideoUrl string
	SenderId string
	RoomId   string
}

// ChangeVideoUrl reassigns the playback host to the sender (whoever
// last loaded media is authoritative) and resets the playback state.
// The follower must reload its media element before any subsequent
// play, pause or seek is meaningful.
func (s service) ChangeVideoUrl(ctx context.Context, params *ChangeVideoUrlParams) (PlayerStateResponse, error) {
	if err := s.checkMembership(ctx, params.RoomId, params.SenderId); err != nil {
		return PlayerStateResponse{}, err
	}

	if err := s.roomRepo.SetHost(ctx, params.RoomId, params.SenderId); err != nil {
		s.logger.InfoContext(ctx, "failed to set host", "error", err)
		return PlayerStateResponse{}, err
	}

	updatedAt := time.Now().Unix()
	if err := s.roomRepo.SetPlayer(ctx, &room.SetPlayerParams{
		VideoUrl:    params.VideoUrl,
		IsPlaying:   false,
		CurrentTime: 0,
		UpdatedAt:   updatedAt,
		RoomId:      params.RoomId,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set player", "error", err)
		return PlayerStateResponse{}, err
	}

	conns, err := s.getOtherConns(ctx, params.RoomId, params.SenderId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get conns", "error", err)
		return PlayerStateResponse{}, err
	}

	return PlayerStateResponse{
		Player: Player{
			VideoUrl:    params.VideoUrl,
			IsPlaying:   false,
			CurrentTime: 0,
			UpdatedAt:   updatedAt,
		},
		Conns: conns,
	}, nil
}
