package room

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/exp/slices"

	"github.com/bijogeorge-arch/couple-chat/internal/repository/room"
	"github.com/bijogeorge-arch/couple-chat/pkg/wsconn"
)

var (
	ErrRoomFull         = errors.New("room is full")
	ErrRoomNotReady     = errors.New("room is not ready")
	ErrAccessDenied     = errors.New("incorrect password")
	ErrInvalidTarget    = errors.New("invalid target")
	ErrPeerUnreachable  = errors.New("peer unreachable")
	ErrPermissionDenied = errors.New("permission denied")
	ErrMemberNotFound   = errors.New("member not found")
)

type iRoomRepo interface {
	// member
	SetMember(context.Context, *room.SetMemberParams) error
	GetMemberRoomId(context.Context, string) (string, error)
	RemoveMember(context.Context, string) error
	AddMemberToList(context.Context, *room.AddMemberToListParams) (int, error)
	RemoveMemberFromList(context.Context, *room.RemoveMemberFromListParams) error
	GetMemberIds(context.Context, string) ([]string, error)
	// room
	SetTheme(ctx context.Context, roomId, theme string) error
	SetCinemaMode(ctx context.Context, roomId string, cinemaMode bool) error
	SetHost(ctx context.Context, roomId, memberId string) error
	GetRoom(ctx context.Context, roomId string) (room.Room, error)
	SetPassword(ctx context.Context, roomId, password string) error
	GetPassword(ctx context.Context, roomId string) (string, error)
	DeleteRoom(ctx context.Context, roomId string) error
	// player
	SetPlayer(context.Context, *room.SetPlayerParams) error
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) error
	GetPlayer(context.Context, string) (room.Player, error)
}

type iConnRepo interface {
	Add(wsconn.Conn, string) error
	RemoveByMemberId(string) (wsconn.Conn, error)
	RemoveByConn(wsconn.Conn) (string, error)
	GetConn(string) (wsconn.Conn, error)
	GetMemberId(wsconn.Conn) (string, error)
}

type service struct {
	roomRepo     iRoomRepo
	connRepo     iConnRepo
	logger       *slog.Logger
	roomCapacity int
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, roomCapacity int, logger *slog.Logger) *service {
	return &service{
		roomRepo:     roomRepo,
		connRepo:     connRepo,
		logger:       logger,
		roomCapacity: roomCapacity,
	}
}

func (s service) checkMembership(ctx context.Context, roomId, memberId string) error {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return err
	}

	if !slices.Contains(memberIds, memberId) {
		return ErrMemberNotFound
	}

	return nil
}

func (s service) checkIfMemberHost(ctx context.Context, roomId, memberId string) error {
	if err := s.checkMembership(ctx, roomId, memberId); err != nil {
		return err
	}

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		return err
	}

	if rm.HostId != memberId {
		return ErrPermissionDenied
	}

	return nil
}

// getConnsByRoomId returns the live conns of the room's members.
// Members whose connection is already gone are skipped: relays are
// fire-and-forget and a dropped message is simply not delivered.
func (s service) getConnsByRoomId(ctx context.Context, roomId string) ([]wsconn.Conn, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return nil, err
	}

	conns := make([]wsconn.Conn, 0, len(memberIds))
	for _, memberId := range memberIds {
		conn, err := s.connRepo.GetConn(memberId)
		if err != nil {
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

func (s service) getOtherConns(ctx context.Context, roomId, senderId string) ([]wsconn.Conn, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return nil, err
	}

	conns := make([]wsconn.Conn, 0, len(memberIds))
	for _, memberId := range memberIds {
		if memberId == senderId {
			continue
		}

		conn, err := s.connRepo.GetConn(memberId)
		if err != nil {
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}
