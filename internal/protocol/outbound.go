package protocol

// OutEnvelope wraps every server-to-client frame with a Type discriminator
// so the client can dispatch without inspecting the payload shape, mirroring
// the teacher's joinResponse/stateMessage/keyframeMessage family in
// messages.go generalized to the full event vocabulary of spec §6.1.
type OutEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type SessionToken struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type Heartbeat struct {
	ServerTime int64 `json:"serverTime"`
}

type ServerPong struct {
	Echo       int64 `json:"echo"`
	ServerTime int64 `json:"serverTime"`
}

type RoomCreated struct {
	RoomCode string `json:"roomCode"`
	LeaderID string `json:"leaderId"`
}

type PlayerJoined struct {
	PlayerKey   string `json:"playerKey"`
	DisplayName string `json:"displayName"`
}

type PlayerLeft struct {
	PlayerKey string `json:"playerKey"`
}

type LobbyPlayerView struct {
	PlayerKey   string `json:"playerKey"`
	DisplayName string `json:"displayName"`
	Ready       bool   `json:"ready"`
	IsLeader    bool   `json:"isLeader"`
}

type LobbyUpdate struct {
	RoomCode string            `json:"roomCode"`
	MapKey   string            `json:"mapKey"`
	Players  []LobbyPlayerView `json:"players"`
}

type PlayerReadyUpdate struct {
	PlayerKey string `json:"playerKey"`
	Ready     bool   `json:"ready"`
}

type NewLeader struct {
	PlayerKey string `json:"playerKey"`
}

type CountdownStart struct {
	StartsAtServerTime int64 `json:"startsAtServerTime"`
	DurationMS         int64 `json:"durationMs"`
}

type GameStart struct {
	MapKey        string `json:"mapKey"`
	MatchDuration int64  `json:"matchDurationMs"`
}

// PlayerView is the per-player wire shape used by both snapshot and delta
// state updates. Position, angle, HP, counters and buff flags have
// legitimate zero values (x=0, hp=0, etc. all occur in play), so they carry
// no `omitempty` and are always sent. DisplayName, the three *Until buff
// expiries (sent only while the buff is active), LastProcessedSeq and
// Removed use `omitempty` and are left out when zero.
type PlayerView struct {
	PlayerKey        string  `json:"playerKey"`
	DisplayName      string  `json:"displayName,omitempty"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	Angle            float64 `json:"angle"`
	HP               int     `json:"hp"`
	MaxHP            int     `json:"maxHp"`
	Charging         bool    `json:"charging"`
	Kills            int     `json:"kills"`
	Deaths           int     `json:"deaths"`
	Killstreak       int     `json:"killstreak"`
	Shielded         bool    `json:"shielded"`
	SpeedBoost       bool    `json:"speedBoost"`
	Invisible        bool    `json:"invisible"`
	ShieldUntil      int64   `json:"shieldUntil,omitempty"`
	SpeedBoostUntil  int64   `json:"speedBoostUntil,omitempty"`
	InvisibleUntil   int64   `json:"invisibleUntil,omitempty"`
	LastProcessedSeq int64   `json:"lastProcessedSeq,omitempty"`
	Removed          bool    `json:"removed,omitempty"`
}

type ProjectileView struct {
	ID       string  `json:"id"`
	OwnerKey string  `json:"ownerKey"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Angle    float64 `json:"angle"`
	Removed  bool    `json:"removed,omitempty"`
}

type BuffView struct {
	ID      string  `json:"id"`
	Kind    string  `json:"kind"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Active  bool    `json:"active"`
	Removed bool    `json:"removed,omitempty"`
}

// StateUpdate is either a full snapshot (Snapshot == true, full entity
// lists) or a delta (only changed/removed entities), per spec §4.3.
type StateUpdate struct {
	Tick             int64            `json:"tick"`
	ServerTime       int64            `json:"serverTime"`
	MatchElapsedMS   int64            `json:"matchElapsedMs"`
	MatchRemainingMS int64            `json:"matchRemainingMs"`
	Snapshot         bool             `json:"snapshot"`
	Players          []PlayerView     `json:"players,omitempty"`
	Projectiles      []ProjectileView `json:"projectiles,omitempty"`
	Buffs            []BuffView       `json:"buffs,omitempty"`
}

type ProjectileFired struct {
	ID       string  `json:"id"`
	OwnerKey string  `json:"ownerKey"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Angle    float64 `json:"angle"`
}

type HitEffect struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Headshot  bool    `json:"headshot"`
	TargetKey string  `json:"targetKey,omitempty"`
}

type ShieldBreak struct {
	PlayerKey string `json:"playerKey"`
}

type PlayerKilled struct {
	VictimKey     string `json:"victimKey"`
	KillerKey     string `json:"killerKey"`
	Headshot      bool   `json:"headshot"`
	KillstreakTag string `json:"killstreakTag,omitempty"`
}

type PlayerRespawn struct {
	PlayerKey string  `json:"playerKey"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Instant   bool    `json:"instant"`
}

type BuffPickup struct {
	PlayerKey string `json:"playerKey"`
	BuffID    string `json:"buffId"`
	Kind      string `json:"kind"`
}

type BuffRespawn struct {
	BuffID string `json:"buffId"`
	Kind   string `json:"kind"`
}

type InstantRespawnUsed struct {
	PlayerKey       string `json:"playerKey"`
	RemainingCharges int   `json:"remainingCharges"`
}

type PlayerMatchStat struct {
	PlayerKey   string `json:"playerKey"`
	DisplayName string `json:"displayName"`
	Kills       int    `json:"kills"`
	Deaths      int    `json:"deaths"`
	Killstreak  int    `json:"bestKillstreak"`
}

type GameEnd struct {
	MatchID string            `json:"matchId"`
	Stats   []PlayerMatchStat `json:"stats"`
}

type MatchResultsPending struct {
	MatchID string            `json:"matchId"`
	Stats   []PlayerMatchStat `json:"stats"`
}

type KickedFromParty struct {
	Reason string `json:"reason"`
}

type ReconnectedToGame struct {
	RoomCode  string `json:"roomCode"`
	PlayerKey string `json:"playerKey"`
}

type ReconnectLimited struct {
	RetryAfterMS int64 `json:"retryAfterMs"`
}

type AntiCheatAction struct {
	Level  string `json:"level"` // warn | soft_block | hard_block
	Reason string `json:"reason"`
}

type AuthError struct {
	Code ErrorCode `json:"code"`
}

type JoinError struct {
	Code ErrorCode `json:"code"`
}

type Error struct {
	Code    ErrorCode `json:"code"`
	Context string    `json:"context,omitempty"`
}

type FriendView struct {
	ProfileID   string `json:"profileId"`
	DisplayName string `json:"displayName"`
	Online      bool   `json:"online"`
}

type FriendsState struct {
	Friends []FriendView `json:"friends"`
}

type PartyLobbyState struct {
	Members  []string `json:"members"`
	LeaderID string   `json:"leaderId"`
}

type AdsState struct {
	PlacementID string `json:"placementId"`
	Rewarded    bool   `json:"rewarded"`
}

type ProfileNicknameUpdated struct {
	DisplayName string `json:"displayName"`
}
