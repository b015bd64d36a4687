package protocol

// Envelope is the outer shape every inbound client frame is decoded into
// first; Type selects which payload shape Data is re-decoded as, matching
// the teacher's ws/handler.go clientMessage dispatch-by-type convention.
type Envelope struct {
	Type string `json:"type"`
}

type RegisterPlayer struct {
	DeviceID    string `json:"deviceId"`
	DisplayName string `json:"displayName"`
}

type UpdateName struct {
	DisplayName string `json:"displayName"`
}

type CreateRoom struct {
	PlayerName string `json:"playerName"`
}

type JoinRoom struct {
	RoomCode string `json:"roomCode"`
}

type PlayerReady struct {
	Ready bool `json:"ready"`
}

type ToggleReady struct{}

type StartGame struct{}

// PlayerInput is sent at client tick rate; Seq is a strictly-increasing
// per-connection sequence number used for replay/ordering validation
// (spec §4.6).
type PlayerInput struct {
	Seq      int64   `json:"seq"`
	Up       bool    `json:"up"`
	Down     bool    `json:"down"`
	Left     bool    `json:"left"`
	Right    bool    `json:"right"`
	Angle    float64 `json:"angle"`
	Charging bool    `json:"charging"`
	SentAt   int64   `json:"sentAt"`
}

type FireProjectile struct {
	Seq   int64   `json:"seq"`
	Angle float64 `json:"angle"`
}

type LeaveRoom struct{}

type RequestLobbyState struct{}

type ReturnToLobby struct{}

type AckMatchResults struct {
	MatchID string `json:"matchId"`
}

type KickPlayer struct {
	PlayerKey string `json:"playerKey"`
}

type ClientPing struct {
	SentAt int64 `json:"sentAt"`
}

type Pong struct {
	Echo int64 `json:"echo"`
}

type FriendRequest struct {
	ProfileID string `json:"profileId"`
}

type FriendRespond struct {
	RequestID string `json:"requestId"`
	Accept    bool   `json:"accept"`
}

type FriendRemove struct {
	ProfileID string `json:"profileId"`
}

type PartyInvite struct {
	ProfileID string `json:"profileId"`
}

type PartyInviteRespond struct {
	InviteID string `json:"inviteId"`
	Accept   bool   `json:"accept"`
}

type PartyLeave struct{}

type AdsWatched struct {
	PlacementID string `json:"placementId"`
}
