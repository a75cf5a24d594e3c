package room

type AddMemberToListParams struct {
	MemberId string
	RoomId   string
	Capacity int
}

type RemoveMemberFromListParams struct {
	MemberId string
	RoomId   string
}

type SetMemberParams struct {
	MemberId string
	RoomId   string
}

type SetPlayerParams struct {
	VideoUrl    string
	IsPlaying   bool
	CurrentTime float64
	UpdatedAt   int64
	RoomId      string
}

type UpdatePlayerStateParams struct {
	IsPlaying   bool
	CurrentTime float64
	UpdatedAt   int64
	RoomId      string
}
