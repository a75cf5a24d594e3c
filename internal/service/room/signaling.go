package room

import (
	"context"
	"encoding/json"

	"golang.org/x/exp/slices"

	"github.com/bijogeorge-arch/couple-chat/pkg/wsconn"
)

type RelaySignalParams struct {
	TargetId string
	SenderId string
	RoomId   string
	Payload  json.RawMessage
}

type RelaySignalResponse struct {
	TargetConn wsconn.Conn
}

// RelaySignal validates that sender and target are both current members
// of the sender's room and resolves the target's live conn. The payload
// is opaque to this layer and forwarded verbatim; nothing is buffered,
// so a message to a dead connection is dropped and recovery is left to
// the caller's retry primitive.
func (s service) RelaySignal(ctx context.Context, params *RelaySignalParams) (RelaySignalResponse, error) {
	if params.TargetId == params.SenderId {
		return RelaySignalResponse{}, ErrInvalidTarget
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, params.RoomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get member ids", "error", err)
		return RelaySignalResponse{}, err
	}

	if !slices.Contains(memberIds, params.SenderId) || !slices.Contains(memberIds, params.TargetId) {
		return RelaySignalResponse{}, ErrInvalidTarget
	}

	conn, err := s.connRepo.GetConn(params.TargetId)
	if err != nil {
		return RelaySignalResponse{}, ErrPeerUnreachable
	}

	return RelaySignalResponse{
		TargetConn: conn,
	}, nil
}

type RetryHandshakeParams struct {
	TargetId string
	SenderId string
	RoomId   string
}

type RetryHandshakeResponse struct {
	InitiatorId string
	ResponderId string
	Conns       []wsconn.Conn
}

// RetryHandshake is the manual fallback for a stalled negotiation: the
// requester re-enters the offering role against an explicitly supplied
// target and both sides are told the new pairing.
func (s service) RetryHandshake(ctx context.Context, params *RetryHandshakeParams) (RetryHandshakeResponse, error) {
	if params.TargetId == params.SenderId {
		return RetryHandshakeResponse{}, ErrInvalidTarget
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, params.RoomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get member ids", "error", err)
		return RetryHandshakeResponse{}, err
	}

	if !slices.Contains(memberIds, params.SenderId) || !slices.Contains(memberIds, params.TargetId) {
		return RetryHandshakeResponse{}, ErrInvalidTarget
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get conns by room id", "error", err)
		return RetryHandshakeResponse{}, err
	}

	return RetryHandshakeResponse{
		InitiatorId: params.SenderId,
		ResponderId: params.TargetId,
		Conns:       conns,
	}, nil
}
