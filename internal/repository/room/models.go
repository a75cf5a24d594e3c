package room

// Member maps a connection-scoped member identity to its room. A member
// belongs to at most one room and does not survive a reconnect.
type Member struct {
	RoomId string `redis:"room_id"`
}

// Room holds the shared session state replayed to a joining member.
type Room struct {
	Theme      string `redis:"theme"`
	CinemaMode bool   `redis:"cinema_mode"`
	HostId     string `redis:"host_id"`
}

// Player is the authoritative playback state. It is asserted by the
// room's host; the follower keeps a best-effort replica.
type Player struct {
	VideoUrl    string  `redis:"video_url"`
	IsPlaying   bool    `redis:"is_playing"`
	CurrentTime float64 `redis:"current_time"`
	UpdatedAt   int64   `redis:"updated_at"`
}
