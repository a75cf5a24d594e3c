package redis

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// admits a member unless the list already holds capacity members.
// Readding a present member is a no-op. Returns the resulting member
// count, or -1 when the room is full.
var addMemberScript = redis.NewScript(`
	local key = KEYS[1]
	local memberId = ARGV[1]
	local capacity = tonumber(ARGV[2])

	if redis.call('ZSCORE', key, memberId) then
		return redis.call('ZCARD', key)
	end

	local size = redis.call('ZCARD', key)
	if size >= capacity then
		return -1
	end

	local maxScore = redis.call('ZREVRANGE', key, 0, 0, 'WITHSCORES')
	local nextScore = 1
	if #maxScore > 0 then
		nextScore = tonumber(maxScore[2]) + 1
	end
	redis.call('ZADD', key, nextScore, memberId)

	return size + 1
`)

type repo struct {
	rc      *redis.Client
	logger  *slog.Logger
	roomExp time.Duration
}

func NewRepo(rc *redis.Client, roomExp time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:      rc,
		logger:  logger,
		roomExp: roomExp,
	}
}

func (r repo) getMemberKey(memberId string) string {
	return "member:" + memberId
}

func (r repo) getRoomKey(roomId string) string {
	return "room:" + roomId
}

func (r repo) getMemberListKey(roomId string) string {
	return "room:" + roomId + ":memberlist"
}

func (r repo) getPasswordKey(roomId string) string {
	return "room:" + roomId + ":password"
}

func (r repo) getPlayerKey(roomId string) string {
	return "room:" + roomId + ":player"
}
