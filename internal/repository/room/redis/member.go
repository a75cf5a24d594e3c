package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/bijogeorge-arch/couple-chat/internal/repository/room"
)

func (r repo) SetMember(ctx context.Context, params *room.SetMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	memberKey := r.getMemberKey(params.MemberId)
	pipe.HSet(ctx, memberKey, "room_id", params.RoomId)
	pipe.Expire(ctx, memberKey, r.roomExp)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetMemberRoomId(ctx context.Context, memberId string) (string, error) {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"member_id": memberId,
	})
	roomId, err := r.rc.HGet(ctx, r.getMemberKey(memberId), "room_id").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.DebugContext(ctx, "returned", "error", room.ErrMemberNotFound)
			return "", room.ErrMemberNotFound
		}

		r.logger.DebugContext(ctx, "returned", "error", err)
		return "", err
	}

	return roomId, nil
}

func (r repo) RemoveMember(ctx context.Context, memberId string) error {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"member_id": memberId,
	})
	if err := r.rc.Del(ctx, r.getMemberKey(memberId)).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

// AddMemberToList admits the member atomically: concurrent joins racing
// for the last slot resolve to exactly one admission.
func (r repo) AddMemberToList(ctx context.Context, params *room.AddMemberToListParams) (int, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	memberListKey := r.getMemberListKey(params.RoomId)

	count, err := addMemberScript.Run(ctx, r.rc, []string{memberListKey}, params.MemberId, params.Capacity).Int()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return 0, err
	}

	if count == -1 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomFull)
		return 0, room.ErrRoomFull
	}

	if err := r.rc.Expire(ctx, memberListKey, r.roomExp).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return 0, err
	}

	return count, nil
}

func (r repo) RemoveMemberFromList(ctx context.Context, params *room.RemoveMemberFromListParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	if err := r.rc.ZRem(ctx, r.getMemberListKey(params.RoomId), params.MemberId).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

// GetMemberIds returns member ids in join order.
func (r repo) GetMemberIds(ctx context.Context, roomId string) ([]string, error) {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
	})
	memberIds, err := r.rc.ZRange(ctx, r.getMemberListKey(roomId), 0, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	return memberIds, nil
}
