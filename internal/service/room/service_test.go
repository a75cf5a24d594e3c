package room

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bijogeorge-arch/couple-chat/internal/repository/connection/inmemory"
	roomRedis "github.com/bijogeorge-arch/couple-chat/internal/repository/room/redis"
	"github.com/bijogeorge-arch/couple-chat/pkg/wsconn"
)

type fakeConn struct {
	mu     sync.Mutex
	closed bool
}

var _ wsconn.Conn = (*fakeConn)(nil)

func (c *fakeConn) ReadJSON(any) error  { return nil }
func (c *fakeConn) WriteJSON(any) error { return nil }

func (c *fakeConn) WriteClose(int, string) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func newTestService(t *testing.T) *service {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	roomRepo := roomRedis.NewRepo(rc, time.Hour, slog.Default())
	connRepo := inmemory.NewRepo(slog.Default())

	return NewService(roomRepo, connRepo, 2, slog.Default())
}

func joinAndConnect(t *testing.T, svc *service, roomId, password string) string {
	t.Helper()

	resp, err := svc.JoinRoom(context.Background(), &JoinRoomParams{
		RoomId:   roomId,
		Password: password,
	})
	require.NoError(t, err)

	err = svc.ConnectMember(context.Background(), &ConnectMemberParams{
		Conn:     &fakeConn{},
		MemberId: resp.MemberId,
	})
	require.NoError(t, err)

	return resp.MemberId
}

func TestJoinRoomCapacity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	resp1, err := svc.JoinRoom(ctx, &JoinRoomParams{RoomId: "room-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp1.MemberCount)

	resp2, err := svc.JoinRoom(ctx, &JoinRoomParams{RoomId: "room-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp2.MemberCount)
	assert.NotEqual(t, resp1.MemberId, resp2.MemberId)

	_, err = svc.JoinRoom(ctx, &JoinRoomParams{RoomId: "room-1"})
	assert.ErrorIs(t, err, ErrRoomFull)

	// a different room is unaffected
	_, err = svc.JoinRoom(ctx, &JoinRoomParams{RoomId: "room-2"})
	require.NoError(t, err)
}

func TestJoinRoomConcurrent(t *testing.T) {
	svc := newTestService(t)

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.JoinRoom(context.Background(), &JoinRoomParams{RoomId: "room-1"})
		}()
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
		} else {
			assert.ErrorIs(t, err, ErrRoomFull)
		}
	}
	assert.Equal(t, 2, admitted, "exactly two joins must be admitted")
}

func TestJoinRoomPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	memberId := joinAndConnect(t, svc, "room-1", "")

	err := svc.SetRoomPassword(ctx, &SetRoomPasswordParams{
		SenderId: memberId,
		RoomId:   "room-1",
		Password: "secret",
	})
	require.NoError(t, err)

	_, err = svc.JoinRoom(ctx, &JoinRoomParams{RoomId: "room-1", Password: "wrong"})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.JoinRoom(ctx, &JoinRoomParams{RoomId: "room-1"})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.JoinRoom(ctx, &JoinRoomParams{RoomId: "room-1", Password: "secret"})
	require.NoError(t, err)
}

func TestSetRoomPasswordRequiresMembership(t *testing.T) {
	svc := newTestService(t)

	joinAndConnect(t, svc, "room-1", "")

	err := svc.SetRoomPassword(context.Background(), &SetRoomPasswordParams{
		SenderId: "stranger",
		RoomId:   "room-1",
		Password: "secret",
	})
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestPrepareHandshake(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	member1 := joinAndConnect(t, svc, "room-1", "")

	_, err := svc.PrepareHandshake(ctx, "room-1")
	assert.ErrorIs(t, err, ErrRoomNotReady)

	member2 := joinAndConnect(t, svc, "room-1", "")

	handshake, err := svc.PrepareHandshake(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, handshake.Conns, 2)
	assert.Less(t, handshake.InitiatorId, handshake.ResponderId, "smaller id initiates")
	assert.ElementsMatch(t, []string{member1, member2}, []string{handshake.InitiatorId, handshake.ResponderId})

	// roles are stable across repeated calls
	again, err := svc.PrepareHandshake(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, handshake.InitiatorId, again.InitiatorId)
	assert.Equal(t, handshake.ResponderId, again.ResponderId)
}

func TestRelaySignal(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	member1 := joinAndConnect(t, svc, "room-1", "")
	member2 := joinAndConnect(t, svc, "room-1", "")
	outsider := joinAndConnect(t, svc, "room-2", "")

	payload := json.RawMessage(`{"sdp":"v=0"}`)

	resp, err := svc.RelaySignal(ctx, &RelaySignalParams{
		TargetId: member2,
		SenderId: member1,
		RoomId:   "room-1",
		Payload:  payload,
	})
	require.NoError(t, err)
	assert.NotNil(t, resp.TargetConn)

	// self-relay is refused
	_, err = svc.RelaySignal(ctx, &RelaySignalParams{
		TargetId: member1,
		SenderId: member1,
		RoomId:   "room-1",
		Payload:  payload,
	})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	// a member of another room is not a valid target
	_, err = svc.RelaySignal(ctx, &RelaySignalParams{
		TargetId: outsider,
		SenderId: member1,
		RoomId:   "room-1",
		Payload:  payload,
	})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	// and the outsider cannot relay into the room either
	_, err = svc.RelaySignal(ctx, &RelaySignalParams{
		TargetId: member2,
		SenderId: outsider,
		RoomId:   "room-1",
		Payload:  payload,
	})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestRelaySignalPeerUnreachable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	member1 := joinAndConnect(t, svc, "room-1", "")

	// second member admitted but never connected
	resp, err := svc.JoinRoom(ctx, &JoinRoomParams{RoomId: "room-1"})
	require.NoError(t, err)

	_, err = svc.RelaySignal(ctx, &RelaySignalParams{
		TargetId: resp.MemberId,
		SenderId: member1,
		RoomId:   "room-1",
		Payload:  json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, ErrPeerUnreachable)
}

func TestRetryHandshake(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	member1 := joinAndConnect(t, svc, "room-1", "")
	member2 := joinAndConnect(t, svc, "room-1", "")

	// the requester takes the offering role regardless of id ordering
	resp, err := svc.RetryHandshake(ctx, &RetryHandshakeParams{
		TargetId: member1,
		SenderId: member2,
		RoomId:   "room-1",
	})
	require.NoError(t, err)
	assert.Equal(t, member2, resp.InitiatorId)
	assert.Equal(t, member1, resp.ResponderId)
	assert.Len(t, resp.Conns, 2)

	_, err = svc.RetryHandshake(ctx, &RetryHandshakeParams{
		TargetId: member2,
		SenderId: member2,
		RoomId:   "room-1",
	})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestDisconnectMember(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	member1 := joinAndConnect(t, svc, "room-1", "")
	member2 := joinAndConnect(t, svc, "room-1", "")

	// member1 joined first so it is the host; its departure hands the
	// role to member2
	resp, err := svc.DisconnectMember(ctx, &DisconnectMemberParams{
		MemberId: member1,
		RoomId:   "room-1",
	})
	require.NoError(t, err)
	assert.False(t, resp.IsRoomDeleted)
	assert.Len(t, resp.Conns, 1)

	state, err := svc.GetRoomState(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, member2, state.HostId)
	assert.Equal(t, []string{member2}, state.MemberIds)

	// the freed slot is available again
	joinAndConnect(t, svc, "room-1", "")

	// disconnect is idempotent
	_, err = svc.DisconnectMember(ctx, &DisconnectMemberParams{
		MemberId: member1,
		RoomId:   "room-1",
	})
	require.NoError(t, err)
}

func TestDisconnectClosesConnection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	resp, err := svc.JoinRoom(ctx, &JoinRoomParams{RoomId: "room-1"})
	require.NoError(t, err)

	conn := &fakeConn{}
	require.NoError(t, svc.ConnectMember(ctx, &ConnectMemberParams{
		Conn:     conn,
		MemberId: resp.MemberId,
	}))

	_, err = svc.DisconnectMember(ctx, &DisconnectMemberParams{
		MemberId: resp.MemberId,
		RoomId:   "room-1",
	})
	require.NoError(t, err)
	assert.True(t, conn.isClosed(), "the registry's conn must be closed on disconnect")
}

func TestDisconnectLastMemberDeletesRoom(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	memberId := joinAndConnect(t, svc, "room-1", "")

	err := svc.SetRoomPassword(ctx, &SetRoomPasswordParams{
		SenderId: memberId,
		RoomId:   "room-1",
		Password: "secret",
	})
	require.NoError(t, err)

	resp, err := svc.DisconnectMember(ctx, &DisconnectMemberParams{
		MemberId: memberId,
		RoomId:   "room-1",
	})
	require.NoError(t, err)
	assert.True(t, resp.IsRoomDeleted)

	// the password died with the room
	_, err = svc.JoinRoom(ctx, &JoinRoomParams{RoomId: "room-1"})
	require.NoError(t, err)
}

func TestKickMember(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	member1 := joinAndConnect(t, svc, "room-1", "")
	member2 := joinAndConnect(t, svc, "room-1", "")

	_, err := svc.KickMember(ctx, &KickMemberParams{
		KickedMemberId: member1,
		SenderId:       member1,
		RoomId:         "room-1",
	})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = svc.KickMember(ctx, &KickMemberParams{
		KickedMemberId: "stranger",
		SenderId:       member1,
		RoomId:         "room-1",
	})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	resp, err := svc.KickMember(ctx, &KickMemberParams{
		KickedMemberId: member2,
		SenderId:       member1,
		RoomId:         "room-1",
	})
	require.NoError(t, err)
	assert.NotNil(t, resp.Conn)
}

func TestPlayerHostPermissions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	host := joinAndConnect(t, svc, "room-1", "")
	follower := joinAndConnect(t, svc, "room-1", "")

	_, err := svc.PlayVideo(ctx, &PlayVideoParams{CurrentTime: 10, SenderId: follower, RoomId: "room-1"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.PauseVideo(ctx, &PauseVideoParams{CurrentTime: 10, SenderId: follower, RoomId: "room-1"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.SeekVideo(ctx, &SeekVideoParams{CurrentTime: 10, SenderId: follower, RoomId: "room-1"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.StartCountdown(ctx, &StartCountdownParams{SenderId: follower, RoomId: "room-1"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	resp, err := svc.PlayVideo(ctx, &PlayVideoParams{CurrentTime: 10, SenderId: host, RoomId: "room-1"})
	require.NoError(t, err)
	assert.True(t, resp.Player.IsPlaying)
	assert.Equal(t, 10.0, resp.Player.CurrentTime)
	assert.Len(t, resp.Conns, 1, "assertions go to the other member only")
}

func TestSeekVideoKeepsPlayState(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	host := joinAndConnect(t, svc, "room-1", "")
	joinAndConnect(t, svc, "room-1", "")

	_, err := svc.PlayVideo(ctx, &PlayVideoParams{CurrentTime: 5, SenderId: host, RoomId: "room-1"})
	require.NoError(t, err)

	resp, err := svc.SeekVideo(ctx, &SeekVideoParams{CurrentTime: 42, SenderId: host, RoomId: "room-1"})
	require.NoError(t, err)
	assert.True(t, resp.Player.IsPlaying)
	assert.Equal(t, 42.0, resp.Player.CurrentTime)

	_, err = svc.PauseVideo(ctx, &PauseVideoParams{CurrentTime: 42, SenderId: host, RoomId: "room-1"})
	require.NoError(t, err)

	resp, err = svc.SeekVideo(ctx, &SeekVideoParams{CurrentTime: 7, SenderId: host, RoomId: "room-1"})
	require.NoError(t, err)
	assert.False(t, resp.Player.IsPlaying)
}

func TestRequestSync(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	host := joinAndConnect(t, svc, "room-1", "")
	follower := joinAndConnect(t, svc, "room-1", "")

	resp, err := svc.RequestSync(ctx, &RequestSyncParams{SenderId: follower, RoomId: "room-1"})
	require.NoError(t, err)
	assert.Equal(t, host, resp.HostId)
	assert.NotNil(t, resp.HostConn)

	// the host polling itself makes no sense
	_, err = svc.RequestSync(ctx, &RequestSyncParams{SenderId: host, RoomId: "room-1"})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestChangeVideoUrlReassignsHost(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	host := joinAndConnect(t, svc, "room-1", "")
	follower := joinAndConnect(t, svc, "room-1", "")

	_, err := svc.PlayVideo(ctx, &PlayVideoParams{CurrentTime: 30, SenderId: host, RoomId: "room-1"})
	require.NoError(t, err)

	resp, err := svc.ChangeVideoUrl(ctx, &ChangeVideoUrlParams{
		VideoUrl: "https://example.com/movie.mp4",
		SenderId: follower,
		RoomId:   "room-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/movie.mp4", resp.Player.VideoUrl)
	assert.False(t, resp.Player.IsPlaying)
	assert.Equal(t, 0.0, resp.Player.CurrentTime)

	state, err := svc.GetRoomState(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, follower, state.HostId)

	// the former host is now subject to the host check
	_, err = svc.PlayVideo(ctx, &PlayVideoParams{CurrentTime: 0, SenderId: host, RoomId: "room-1"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestSessionEventFanout(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	member1 := joinAndConnect(t, svc, "room-1", "")
	joinAndConnect(t, svc, "room-1", "")

	reaction, err := svc.SendReaction(ctx, &SendReactionParams{
		Emoji:    "❤️",
		X:        0.5,
		Y:        0.25,
		SenderId: member1,
		RoomId:   "room-1",
	})
	require.NoError(t, err)
	assert.Len(t, reaction.Conns, 2, "reactions echo back to the sender")

	message, err := svc.SendMessage(ctx, &SendMessageParams{
		Message:   "hi",
		Timestamp: time.Now().UnixMilli(),
		SenderId:  member1,
		RoomId:    "room-1",
	})
	require.NoError(t, err)
	assert.Len(t, message.Conns, 1, "chat goes to the other member only")

	typing, err := svc.UpdateTyping(ctx, &UpdateTypingParams{
		IsTyping: true,
		SenderId: member1,
		RoomId:   "room-1",
	})
	require.NoError(t, err)
	assert.Len(t, typing.Conns, 1)
}

func TestThemeAndCinemaModeReplayedOnJoin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	member1 := joinAndConnect(t, svc, "room-1", "")

	_, err := svc.ChangeTheme(ctx, &ChangeThemeParams{Theme: "sunset", SenderId: member1, RoomId: "room-1"})
	require.NoError(t, err)

	_, err = svc.ChangeCinemaMode(ctx, &ChangeCinemaModeParams{CinemaMode: true, SenderId: member1, RoomId: "room-1"})
	require.NoError(t, err)

	state, err := svc.GetRoomState(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "sunset", state.Theme)
	assert.True(t, state.CinemaMode)
	assert.Equal(t, member1, state.HostId)
}

func TestStartCountdownDefaultsDuration(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	host := joinAndConnect(t, svc, "room-1", "")
	joinAndConnect(t, svc, "room-1", "")

	resp, err := svc.StartCountdown(ctx, &StartCountdownParams{SenderId: host, RoomId: "room-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Duration)
	assert.Len(t, resp.Conns, 2)

	resp, err = svc.StartCountdown(ctx, &StartCountdownParams{Duration: 10, SenderId: host, RoomId: "room-1"})
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Duration)
}

func TestEventsRequireMembership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	joinAndConnect(t, svc, "room-1", "")

	_, err := svc.SendMessage(ctx, &SendMessageParams{Message: "hi", SenderId: "stranger", RoomId: "room-1"})
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = svc.SendReaction(ctx, &SendReactionParams{Emoji: "x", SenderId: "stranger", RoomId: "room-1"})
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = svc.ChangeVideoUrl(ctx, &ChangeVideoUrlParams{VideoUrl: "u", SenderId: "stranger", RoomId: "room-1"})
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestJoinRoomErrors(t *testing.T) {
	// sanity: sentinel errors are distinct
	for _, pair := range [][2]error{
		{ErrRoomFull, ErrAccessDenied},
		{ErrInvalidTarget, ErrPeerUnreachable},
		{ErrPermissionDenied, ErrMemberNotFound},
	} {
		assert.False(t, errors.Is(pair[0], pair[1]))
	}
}
