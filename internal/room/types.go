// Package room implements the room/lobby lifecycle, the authoritative
// simulation tick, and state broadcasting (spec §4.2, §4.3, §4.4, §4.8) as
// one per-room actor, grounded on garbhj-motion-demo's room/room.go
// select-loop-over-inbox-channel pattern: one goroutine per room draining a
// command channel and a ticker, rather than the teacher's single
// flat-world hub locked by one shared mutex (hub.go).
package room

import (
	"time"

	"arenaserver/internal/validate"
)

// State is the room lifecycle state machine (spec §4.8).
type State int

const (
	StateLobby State = iota
	StateStarting
	StatePlaying
)

const (
	MaxPlayers       = 6
	CountdownMS      = 3000
	MatchDurationMS  = 110 * 1000
	MaxHP            = 3
	PlayerSpeed      = 127.05 // px/s
	SpeedBoostMult   = 1.25
	ChargingSpeedMult = 0.5
	ProjectileSpeed  = 871.2
	ProjectileLifetimeMS = 10 * 1000
	RespawnDelayMS   = 3000
	BuffRespawnMS    = 6000
	FireCooldownMS   = 140
	ChargeRequiredMS = 1000
	ChargeRequiredFastMS = 850 // killstreak >= 7
	ChargeGraceMS    = 90
	MaxActiveProjectilesPerPlayer = 8
	MuzzleDistance   = 25.0
	MuzzleTolerance  = 6.0
	KillChainWindowMS = 6000
	HealAmount       = 1
)

// BuffKind is the closed set of pickups spec §3 defines.
type BuffKind string

const (
	BuffHealth    BuffKind = "health"
	BuffShield    BuffKind = "shield"
	BuffInvisible BuffKind = "invisible"
	BuffSpeed     BuffKind = "speed"
)

var buffKinds = []BuffKind{BuffHealth, BuffShield, BuffInvisible, BuffSpeed}

// InputState is the latest validated movement/aim input for a player.
type InputState struct {
	Up, Down, Left, Right bool
	Angle                 float64
	Charging              bool
}

// Player is one room-local participant. PlayerKey is an opaque id stable
// for the player's lifetime in the room, independent of the underlying
// network connection — reconnection rebinds ConnID without touching
// PlayerKey, per spec §9's design note against keying state by connection
// id.
type Player struct {
	PlayerKey    string
	PersistentID string
	ProfileID    string
	DisplayName  string
	ConnID       string

	Ready        bool
	Disconnected bool
	DisconnectAt time.Time

	X, Y  float64
	Angle float64
	HP    int
	MaxHP int

	Kills      int
	Deaths     int
	Killstreak int
	BestKillstreak int

	Input        InputState
	LastInputSeq int64
	LastInputAt  time.Time

	ChargeStartAt time.Time
	Charging      bool

	LastShotAt time.Time

	DiedAt time.Time

	SpeedBoostUntil   time.Time
	ShieldUntil       time.Time
	InvisibleUntil    time.Time

	InstantRespawnCharges int

	SpawnIndex int

	// toggle-spam tracking (spec §4.6)
	ToggleMeter        validate.ToggleSpamMeter
	ToggleSpamWindowAt time.Time
	LastUp, LastDown, LastLeft, LastRight bool
}

func (p *Player) HasSpeedBoost(now time.Time) bool   { return now.Before(p.SpeedBoostUntil) }
func (p *Player) HasShield(now time.Time) bool       { return now.Before(p.ShieldUntil) }
func (p *Player) IsInvisible(now time.Time) bool     { return now.Before(p.InvisibleUntil) }

func (p *Player) ClearBuffs() {
	var zero time.Time
	p.SpeedBoostUntil = zero
	p.ShieldUntil = zero
	p.InvisibleUntil = zero
}

func (p *Player) ChargeRequiredMS() int64 {
	if p.Killstreak >= 7 {
		return ChargeRequiredFastMS
	}
	return ChargeRequiredMS
}

// Projectile is a single fired shot in flight.
type Projectile struct {
	ID        string
	OwnerKey  string
	X, Y      float64
	Angle     float64
	SpawnedAt time.Time
	PrevX, PrevY float64
}

// Buff is a pickup spawn point's current state.
type Buff struct {
	ID         string
	Kind       BuffKind
	X, Y       float64
	Active     bool
	InactiveAt time.Time
}

// MatchStat is one player's finalized per-match record (spec §3).
type MatchStat struct {
	PlayerKey    string
	PersistentID string
	DisplayName  string
	Kills        int
	Deaths       int
	BestKillstreak int
}
