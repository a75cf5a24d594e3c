package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/bijogeorge-arch/couple-chat/internal/repository/room"
)

func (r repo) setRoomField(ctx context.Context, roomId, field string, value any) error {
	pipe := r.rc.TxPipeline()

	roomKey := r.getRoomKey(roomId)
	pipe.HSet(ctx, roomKey, field, value)
	pipe.Expire(ctx, roomKey, r.roomExp)

	return r.executePipe(ctx, pipe)
}

func (r repo) SetTheme(ctx context.Context, roomId, theme string) error {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
		"theme":   theme,
	})
	if err := r.setRoomField(ctx, roomId, "theme", theme); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) SetCinemaMode(ctx context.Context, roomId string, cinemaMode bool) error {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id":     roomId,
		"cinema_mode": cinemaMode,
	})
	if err := r.setRoomField(ctx, roomId, "cinema_mode", cinemaMode); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) SetHost(ctx context.Context, roomId, memberId string) error {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id":   roomId,
		"member_id": memberId,
	})
	if err := r.setRoomField(ctx, roomId, "host_id", memberId); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomId string) (room.Room, error) {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
	})
	var rm room.Room
	if err := r.rc.HGetAll(ctx, r.getRoomKey(roomId)).Scan(&rm); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.Room{}, err
	}

	return rm, nil
}

// SetPassword is last-writer-wins. The stored secret is a shared string
// gate, not a security boundary.
func (r repo) SetPassword(ctx context.Context, roomId, password string) error {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
	})
	if err := r.rc.Set(ctx, r.getPasswordKey(roomId), password, r.roomExp).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

// GetPassword returns an empty string when no password was ever set,
// which callers treat as an unprotected room.
func (r repo) GetPassword(ctx context.Context, roomId string) (string, error) {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
	})
	password, err := r.rc.Get(ctx, r.getPasswordKey(roomId)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}

		r.logger.DebugContext(ctx, "returned", "error", err)
		return "", err
	}

	return password, nil
}

// DeleteRoom removes every key of the room so empty rooms do not
// accumulate. Key TTLs back this up for abandoned rooms.
func (r repo) DeleteRoom(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
	})
	if err := r.rc.Del(ctx,
		r.getRoomKey(roomId),
		r.getMemberListKey(roomId),
		r.getPasswordKey(roomId),
		r.getPlayerKey(roomId),
	).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
