package room

import (
	"math"
	"time"

	"arenaserver/internal/protocol"
)

const (
	epsilonPosition = 0.01
	epsilonAngle    = 0.001
)

// dispatchBroadcast builds and sends the per-tick state update (spec §4.3):
// a full snapshot on the first tick of a match and at least every
// fullSnapshotIntervalMS thereafter, a diff-only delta otherwise. Grounded
// on the idea in the teacher's deleted patches.go journal (snapshot vs
// delta framing, epsilon-compared numeric fields), reimplemented from
// scratch and sized to this spec's fixed entity kinds.
func (r *Room) dispatchBroadcast(now time.Time) {
	snapshot := r.lastFullSnapshotAt.IsZero() || now.Sub(r.lastFullSnapshotAt) >= time.Duration(r.fullSnapshotIntervalMS)*time.Millisecond
	if snapshot {
		r.lastFullSnapshotAt = now
	}

	players, projectiles, buffs := r.diffEntities(now, snapshot)

	update := protocol.StateUpdate{
		Tick:             r.lastTick,
		ServerTime:       now.UnixMilli(),
		MatchElapsedMS:   now.Sub(r.matchStartAt).Milliseconds(),
		MatchRemainingMS: MatchDurationMS - now.Sub(r.matchStartAt).Milliseconds(),
		Snapshot:         snapshot,
		Players:          players,
		Projectiles:      projectiles,
		Buffs:            buffs,
	}
	if len(players) == 0 && len(projectiles) == 0 && len(buffs) == 0 && !snapshot {
		return
	}
	r.broadcastAll("stateUpdate", update)
}

func (r *Room) diffEntities(now time.Time, snapshot bool) ([]protocol.PlayerView, []protocol.ProjectileView, []protocol.BuffView) {
	var players []protocol.PlayerView
	seenPlayers := make(map[string]bool, len(r.players))
	for key, p := range r.players {
		seenPlayers[key] = true
		view := protocol.PlayerView{
			PlayerKey: key, DisplayName: p.DisplayName, X: p.X, Y: p.Y, Angle: p.Angle,
			HP: p.HP, MaxHP: p.MaxHP, Charging: p.Charging,
			Kills: p.Kills, Deaths: p.Deaths, Killstreak: p.Killstreak,
			Shielded: p.HasShield(now), SpeedBoost: p.HasSpeedBoost(now), Invisible: p.IsInvisible(now),
			LastProcessedSeq: p.LastInputSeq,
		}
		if p.HasShield(now) {
			view.ShieldUntil = p.ShieldUntil.UnixMilli()
		}
		if p.HasSpeedBoost(now) {
			view.SpeedBoostUntil = p.SpeedBoostUntil.UnixMilli()
		}
		if p.IsInvisible(now) {
			view.InvisibleUntil = p.InvisibleUntil.UnixMilli()
		}
		if snapshot || playerViewChanged(r.lastPlayerView[key], view) {
			players = append(players, view)
			r.lastPlayerView[key] = view
		}
	}
	for key := range r.lastPlayerView {
		if !seenPlayers[key] {
			players = append(players, protocol.PlayerView{PlayerKey: key, Removed: true})
			delete(r.lastPlayerView, key)
		}
	}

	var projectiles []protocol.ProjectileView
	seenProjectiles := make(map[string]bool, len(r.projectiles))
	for id, proj := range r.projectiles {
		seenProjectiles[id] = true
		view := protocol.ProjectileView{ID: id, OwnerKey: proj.OwnerKey, X: proj.X, Y: proj.Y, Angle: proj.Angle}
		if snapshot || projectileViewChanged(r.lastProjectileView[id], view) {
			projectiles = append(projectiles, view)
			r.lastProjectileView[id] = view
		}
	}
	for id := range r.lastProjectileView {
		if !seenProjectiles[id] {
			projectiles = append(projectiles, protocol.ProjectileView{ID: id, Removed: true})
			delete(r.lastProjectileView, id)
		}
	}

	var buffs []protocol.BuffView
	for _, b := range r.buffs {
		view := protocol.BuffView{ID: b.ID, Kind: string(b.Kind), X: b.X, Y: b.Y, Active: b.Active}
		if snapshot || buffViewChanged(r.lastBuffView[b.ID], view) {
			buffs = append(buffs, view)
			r.lastBuffView[b.ID] = view
		}
	}

	return players, projectiles, buffs
}

func playerViewChanged(prev, next protocol.PlayerView) bool {
	return !nearlyEqual(prev.X, next.X) || !nearlyEqual(prev.Y, next.Y) ||
		!angleNearlyEqual(prev.Angle, next.Angle) ||
		prev.HP != next.HP || prev.MaxHP != next.MaxHP || prev.Charging != next.Charging ||
		prev.Kills != next.Kills || prev.Deaths != next.Deaths || prev.Killstreak != next.Killstreak ||
		prev.Shielded != next.Shielded || prev.SpeedBoost != next.SpeedBoost || prev.Invisible != next.Invisible ||
		prev.DisplayName != next.DisplayName || prev.LastProcessedSeq != next.LastProcessedSeq ||
		prev.ShieldUntil != next.ShieldUntil || prev.SpeedBoostUntil != next.SpeedBoostUntil || prev.InvisibleUntil != next.InvisibleUntil
}

func projectileViewChanged(prev, next protocol.ProjectileView) bool {
	return !nearlyEqual(prev.X, next.X) || !nearlyEqual(prev.Y, next.Y) || !angleNearlyEqual(prev.Angle, next.Angle)
}

func buffViewChanged(prev, next protocol.BuffView) bool {
	return !nearlyEqual(prev.X, next.X) || !nearlyEqual(prev.Y, next.Y) || prev.Active != next.Active
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilonPosition
}

func angleNearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilonAngle
}
