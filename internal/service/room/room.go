package room

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bijogeorge-arch/couple-chat/internal/repository/connection"
	"github.com/bijogeorge-arch/couple-chat/internal/repository/room"
	"github.com/bijogeorge-arch/couple-chat/pkg/wsconn"
)

type JoinRoomParams struct {
	RoomId   string
	Password string
}

type JoinRoomResponse struct {
	MemberId    string
	MemberCount int
}

// JoinRoom admits a new member into the room, creating the room
// implicitly on the first join. The password gate runs before any
// membership mutation, so a denied attempt leaves no trace. The first
// admitted member becomes the playback host by default.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	password, err := s.roomRepo.GetPassword(ctx, params.RoomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get room password", "error", err)
		return JoinRoomResponse{}, err
	}

	if password != "" && password != params.Password {
		return JoinRoomResponse{}, ErrAccessDenied
	}

	memberId := uuid.NewString()
	count, err := s.roomRepo.AddMemberToList(ctx, &room.AddMemberToListParams{
		MemberId: memberId,
		RoomId:   params.RoomId,
		Capacity: s.roomCapacity,
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomFull) {
			return JoinRoomResponse{}, ErrRoomFull
		}

		s.logger.InfoContext(ctx, "failed to add member to list", "error", err)
		return JoinRoomResponse{}, err
	}

	if err := s.roomRepo.SetMember(ctx, &room.SetMemberParams{
		MemberId: memberId,
		RoomId:   params.RoomId,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set member", "error", err)
		return JoinRoomResponse{}, err
	}

	if count == 1 {
		if err := s.roomRepo.SetHost(ctx, params.RoomId, memberId); err != nil {
			s.logger.InfoContext(ctx, "failed to set host", "error", err)
			return JoinRoomResponse{}, err
		}
	}

	return JoinRoomResponse{
		MemberId:    memberId,
		MemberCount: count,
	}, nil
}

type ConnectMemberParams struct {
	Conn     wsconn.Conn
	MemberId string
}

func (s service) ConnectMember(ctx context.Context, params *ConnectMemberParams) error {
	if err := s.connRepo.Add(params.Conn, params.MemberId); err != nil {
		s.logger.InfoContext(ctx, "failed to connect member", "error", err)
		return err
	}

	return nil
}

type PrepareHandshakeResponse struct {
	InitiatorId string
	ResponderId string
	Conns       []wsconn.Conn
}

// PrepareHandshake assigns negotiation roles at the moment the room
// reaches two members. The member with the lexicographically smaller id
// always initiates, so both sides agree on who sends the offer without
// racing on the membership-complete transition.
func (s service) PrepareHandshake(ctx context.Context, roomId string) (PrepareHandshakeResponse, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get member ids", "error", err)
		return PrepareHandshakeResponse{}, err
	}

	if len(memberIds) != 2 {
		return PrepareHandshakeResponse{}, ErrRoomNotReady
	}

	initiatorId, responderId := memberIds[0], memberIds[1]
	if responderId < initiatorId {
		initiatorId, responderId = responderId, initiatorId
	}

	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get conns by room id", "error", err)
		return PrepareHandshakeResponse{}, err
	}

	return PrepareHandshakeResponse{
		InitiatorId: initiatorId,
		ResponderId: responderId,
		Conns:       conns,
	}, nil
}

type SetRoomPasswordParams struct {
	SenderId string
	RoomId   string
	Password string
}

func (s service) SetRoomPassword(ctx context.Context, params *SetRoomPasswordParams) error {
	if err := s.checkMembership(ctx, params.RoomId, params.SenderId); err != nil {
		return err
	}

	if err := s.roomRepo.SetPassword(ctx, params.RoomId, params.Password); err != nil {
		s.logger.InfoContext(ctx, "failed to set room password", "error", err)
		return err
	}

	return nil
}

type Player struct {
	VideoUrl    string  `json:"video_url"`
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time"`
	UpdatedAt   int64   `json:"updated_at"`
}

type RoomState struct {
	MemberIds  []string `json:"member_ids"`
	Theme      string   `json:"theme"`
	CinemaMode bool     `json:"cinema_mode"`
	HostId     string   `json:"host_id"`
	Player     Player   `json:"player"`
}

// GetRoomState snapshots the shared session state. Replaying it to a
// joiner closes the original behavior's gap where a late joiner saw no
// theme or cinema-mode update until the next change.
func (s service) GetRoomState(ctx context.Context, roomId string) (RoomState, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get member ids", "error", err)
		return RoomState{}, err
	}

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get room", "error", err)
		return RoomState{}, err
	}

	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get player", "error", err)
		return RoomState{}, err
	}

	return RoomState{
		MemberIds:  memberIds,
		Theme:      rm.Theme,
		CinemaMode: rm.CinemaMode,
		HostId:     rm.HostId,
		Player: Player{
			VideoUrl:    player.VideoUrl,
			IsPlaying:   player.IsPlaying,
			CurrentTime: player.CurrentTime,
			UpdatedAt:   player.UpdatedAt,
		},
	}, nil
}

type DisconnectMemberParams struct {
	MemberId string
	RoomId   string
}

type DisconnectMemberResponse struct {
	Conns         []wsconn.Conn
	IsRoomDeleted bool
}

// DisconnectMember releases the member's registry slot synchronously,
// so a departed member never counts toward the capacity of a later
// join. The host role falls over to the remaining member.
func (s service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) (DisconnectMemberResponse, error) {
	if err := s.roomRepo.RemoveMemberFromList(ctx, &room.RemoveMemberFromListParams{
		MemberId: params.MemberId,
		RoomId:   params.RoomId,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to remove member from list", "error", err)
	}

	if err := s.roomRepo.RemoveMember(ctx, params.MemberId); err != nil {
		s.logger.InfoContext(ctx, "failed to remove member", "error", err)
	}

	if conn, err := s.connRepo.RemoveByMemberId(params.MemberId); err != nil {
		if !errors.Is(err, connection.ErrNotFound) {
			s.logger.InfoContext(ctx, "failed to remove conn", "error", err)
		}
	} else {
		conn.Close()
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, params.RoomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get member ids", "error", err)
		return DisconnectMemberResponse{}, err
	}

	if len(memberIds) == 0 {
		if err := s.roomRepo.DeleteRoom(ctx, params.RoomId); err != nil {
			s.logger.InfoContext(ctx, "failed to delete room", "error", err)
			return DisconnectMemberResponse{}, err
		}

		return DisconnectMemberResponse{
			IsRoomDeleted: true,
		}, nil
	}

	rm, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get room", "error", err)
		return DisconnectMemberResponse{}, err
	}

	if rm.HostId == params.MemberId {
		if err := s.roomRepo.SetHost(ctx, params.RoomId, memberIds[0]); err != nil {
			s.logger.InfoContext(ctx, "failed to set host", "error", err)
			return DisconnectMemberResponse{}, err
		}
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get conns by room id", "error", err)
		return DisconnectMemberResponse{}, err
	}

	return DisconnectMemberResponse{
		Conns:         conns,
		IsRoomDeleted: false,
	}, nil
}

type KickMemberParams struct {
	KickedMemberId string
	SenderId       string
	RoomId         string
}

type KickMemberResponse struct {
	Conn wsconn.Conn
}

// KickMember resolves the target's live conn; the registry slot is
// released by the disconnect flow once the closed connection's read
// loop exits.
func (s service) KickMember(ctx context.Context, params *KickMemberParams) (KickMemberResponse, error) {
	if params.KickedMemberId == params.SenderId {
		return KickMemberResponse{}, ErrInvalidTarget
	}

	if err := s.checkMembership(ctx, params.RoomId, params.SenderId); err != nil {
		return KickMemberResponse{}, err
	}

	if err := s.checkMembership(ctx, params.RoomId, params.KickedMemberId); err != nil {
		return KickMemberResponse{}, ErrInvalidTarget
	}

	conn, err := s.connRepo.GetConn(params.KickedMemberId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get conn", "error", err)
		return KickMemberResponse{}, ErrPeerUnreachable
	}

	return KickMemberResponse{
		Conn: conn,
	}, nil
}
