package room

import (
	"math"
	"time"

	"github.com/google/uuid"

	"arenaserver/internal/anticheat"
	"arenaserver/internal/geometry"
	"arenaserver/internal/mapcatalog"
	"arenaserver/internal/protocol"
	"arenaserver/internal/validate"
)

func (r *Room) handleInput(req inputCommand) {
	p, ok := r.players[req.playerKey]
	if !ok || p.Disconnected {
		return
	}

	if !validate.SequenceWindow(p.LastInputSeq, req.seq) {
		r.strike(p, anticheat.ReasonSequenceOutOfWindow)
		return
	}
	if !validate.FiniteAngle(req.input.Angle) {
		r.strike(p, anticheat.ReasonMalformedInput)
		return
	}

	r.accumulateToggleSpam(p, req)

	if req.seq > p.LastInputSeq {
		p.LastInputSeq = req.seq
	}
	p.Input = req.input
	p.LastInputAt = req.now

	if req.input.Charging && !p.Charging {
		p.ChargeStartAt = req.now
	}
	if !req.input.Charging && p.Charging {
		// falling edge: charge released without firing cancels invisibility
		p.InvisibleUntil = time.Time{}
	}
	p.Charging = req.input.Charging
}

func (r *Room) accumulateToggleSpam(p *Player, req inputCommand) {
	opposite := (req.input.Left != p.LastLeft && req.input.Right != p.LastRight && (req.input.Left || req.input.Right)) ||
		(req.input.Up != p.LastUp && req.input.Down != p.LastDown && (req.input.Up || req.input.Down))
	p.LastUp, p.LastDown, p.LastLeft, p.LastRight = req.input.Up, req.input.Down, req.input.Left, req.input.Right
	if !opposite {
		return
	}
	dt := req.now.Sub(p.ToggleSpamWindowAt)
	if p.ToggleSpamWindowAt.IsZero() {
		dt = validate.ToggleSpamWindow
	}
	p.ToggleSpamWindowAt = req.now
	if _, strike := p.ToggleMeter.Accumulate(req.now, dt); strike {
		r.strike(p, anticheat.ReasonToggleSpam)
	}
}

func (r *Room) handleFire(req fireCommand) {
	p, ok := r.players[req.playerKey]
	if !ok || p.Disconnected || p.HP <= 0 {
		return
	}
	if r.state != StatePlaying {
		return
	}
	if validate.InputStaleness(p.LastInputAt, req.now) {
		r.strike(p, anticheat.ReasonStaleInput)
		return
	}
	if !validate.FireRateOK(p.LastShotAt, req.now) {
		r.strike(p, anticheat.ReasonFireRateExceeded)
		return
	}
	if !validate.FiniteAngle(req.angle) {
		r.strike(p, anticheat.ReasonMalformedInput)
		return
	}
	required := p.ChargeRequiredMS()
	var holdMS int64
	if !p.ChargeStartAt.IsZero() {
		holdMS = req.now.Sub(p.ChargeStartAt).Milliseconds()
	}
	if !validate.ChargeHoldOK(holdMS, required) {
		r.strike(p, anticheat.ReasonChargeTooShort)
		return
	}

	active := 0
	for _, proj := range r.projectiles {
		if proj.OwnerKey == p.PlayerKey {
			active++
		}
	}
	if !validate.ActiveProjectileCapOK(active, MaxActiveProjectilesPerPlayer) {
		r.strike(p, anticheat.ReasonActiveProjectileCap)
		return
	}

	warn, reject := validate.AngleMismatch(req.angle, p.Input.Angle)
	if reject {
		r.strike(p, anticheat.ReasonAngleMismatchReject)
		return
	}
	if warn {
		r.strike(p, anticheat.ReasonAngleMismatchWarn)
	}

	originX := p.X + math.Cos(req.angle)*MuzzleDistance
	originY := p.Y + math.Sin(req.angle)*MuzzleDistance
	if !validate.MuzzleOriginDistanceOK(p.X, p.Y, originX, originY) {
		r.strike(p, anticheat.ReasonMuzzleOriginInvalid)
		return
	}
	if geometry.PointBlocked(r.MapDef.Obstacles, originX, originY) {
		r.strike(p, anticheat.ReasonOriginObstructed)
		return
	}
	if geometry.SegmentOccluded(r.MapDef.Obstacles, p.X, p.Y, originX, originY) {
		r.strike(p, anticheat.ReasonShotPathOccluded)
		return
	}

	p.LastShotAt = req.now
	p.Charging = false
	p.ChargeStartAt = time.Time{}
	p.InvisibleUntil = time.Time{}

	proj := &Projectile{
		ID:        uuid.NewString(),
		OwnerKey:  p.PlayerKey,
		X:         originX,
		Y:         originY,
		PrevX:     originX,
		PrevY:     originY,
		Angle:     req.angle,
		SpawnedAt: req.now,
	}
	r.projectiles[proj.ID] = proj
	r.broadcastAll("projectileFired", map[string]any{
		"id": proj.ID, "ownerKey": proj.OwnerKey, "x": proj.X, "y": proj.Y, "angle": proj.Angle,
	})
}

func (r *Room) strike(p *Player, reason anticheat.StrikeReason) {
	if r.anticheatEngine == nil {
		return
	}
	level := r.anticheatEngine.Strike(r.Code, p.PlayerKey, reason)
	if level != anticheat.LevelNone {
		r.emit(p.PlayerKey, "antiCheatAction", map[string]any{"level": string(level), "reason": string(reason)})
	}
}

// tick advances the simulation by one fixed step; called from Run's select
// loop on every ticker fire (spec §4.2).
func (r *Room) tick(now time.Time) {
	switch r.state {
	case StateStarting:
		if now.Sub(r.countdownStartAt) >= CountdownMS*time.Millisecond {
			r.beginMatch(now)
		}
		return
	case StatePlaying:
		r.advance(now)
	default:
		return
	}
}

func (r *Room) beginMatch(now time.Time) {
	r.state = StatePlaying
	r.matchStartAt = now
	r.lastFullSnapshotAt = time.Time{}
	r.lastTick = 0
	r.broadcastAll("gameStart", map[string]any{
		"mapKey":          r.MapDef.Key,
		"matchDurationMs": MatchDurationMS,
	})
}

const fixedDT = 1.0 / float64(TickHz)

func (r *Room) advance(now time.Time) {
	r.lastTick++

	for _, p := range r.players {
		r.advancePlayer(p, now)
	}
	r.advanceProjectiles(now)
	r.advanceBuffs(now)
	r.dispatchBroadcast(now)

	if now.Sub(r.matchStartAt) >= MatchDurationMS*time.Millisecond {
		r.endMatch(now)
	}
}

func (r *Room) advancePlayer(p *Player, now time.Time) {
	if p.Disconnected {
		return
	}
	if p.HP <= 0 {
		if p.InstantRespawnCharges > 0 {
			return // consumed explicitly by handleKill at death time
		}
		if !p.DiedAt.IsZero() && now.Sub(p.DiedAt) >= RespawnDelayMS*time.Millisecond {
			r.respawnPlayer(p, now, false)
		}
		return
	}

	speed := PlayerSpeed
	if p.HasSpeedBoost(now) {
		speed *= SpeedBoostMult
	}
	if p.Charging {
		speed *= ChargingSpeedMult
	}

	var dx, dy float64
	if p.Input.Up {
		dy--
	}
	if p.Input.Down {
		dy++
	}
	if p.Input.Left {
		dx--
	}
	if p.Input.Right {
		dx++
	}
	if dx != 0 || dy != 0 {
		length := math.Hypot(dx, dy)
		dx /= length
		dy /= length
		nx := geometry.Clamp(p.X+dx*speed*fixedDT, 0, mapcatalog.Width)
		ny := geometry.Clamp(p.Y+dy*speed*fixedDT, 0, mapcatalog.Height)
		if !geometry.PlayerBlocked(r.MapDef.Obstacles, nx, p.Y) {
			p.X = nx
		}
		if !geometry.PlayerBlocked(r.MapDef.Obstacles, p.X, ny) {
			p.Y = ny
		}
	}
	p.Angle = p.Input.Angle

	r.checkBuffPickup(p, now)
}

func (r *Room) advanceProjectiles(now time.Time) {
	for id, proj := range r.projectiles {
		age := now.Sub(proj.SpawnedAt)
		if age >= ProjectileLifetimeMS*time.Millisecond {
			delete(r.projectiles, id)
			continue
		}
		proj.PrevX, proj.PrevY = proj.X, proj.Y
		proj.X += math.Cos(proj.Angle) * ProjectileSpeed * fixedDT
		proj.Y += math.Sin(proj.Angle) * ProjectileSpeed * fixedDT

		if proj.X < 0 || proj.X > mapcatalog.Width || proj.Y < 0 || proj.Y > mapcatalog.Height {
			delete(r.projectiles, id)
			continue
		}
		if geometry.PointBlocked(r.MapDef.Obstacles, proj.X, proj.Y) {
			r.broadcastAll("hitEffect", map[string]any{"x": proj.X, "y": proj.Y, "headshot": false})
			delete(r.projectiles, id)
			continue
		}

		if hit, headshot := r.sweptHit(proj); hit != nil {
			r.applyProjectileHit(proj, hit, headshot, now)
			delete(r.projectiles, id)
		}
	}
}

func (r *Room) sweptHit(proj *Projectile) (*Player, bool) {
	for _, target := range r.players {
		if target.PlayerKey == proj.OwnerKey || target.Disconnected || target.HP <= 0 {
			continue
		}
		_, _, _, dist := geometry.ClosestPointOnSegment(proj.PrevX, proj.PrevY, proj.X, proj.Y, target.X, target.Y)
		if dist <= geometry.HitRadius {
			headshot := dist <= geometry.HeadshotRadius && !target.HasShield(proj.SpawnedAt)
			return target, headshot
		}
	}
	return nil, false
}

func (r *Room) applyProjectileHit(proj *Projectile, target *Player, headshot bool, now time.Time) {
	if target.HasShield(now) {
		target.ShieldUntil = time.Time{}
		r.broadcastAll("shieldBreak", map[string]any{"playerKey": target.PlayerKey})
		r.broadcastAll("hitEffect", map[string]any{"x": proj.X, "y": proj.Y, "headshot": false, "targetKey": target.PlayerKey})
		return
	}

	damage := 1
	if headshot {
		damage = target.HP
	}
	target.HP -= damage
	r.broadcastAll("hitEffect", map[string]any{"x": proj.X, "y": proj.Y, "headshot": headshot, "targetKey": target.PlayerKey})

	if target.HP <= 0 {
		target.HP = 0
		if killer, ok := r.players[proj.OwnerKey]; ok {
			r.handleKill(killer, target, headshot, now)
		}
	}
}

func killstreakTag(streak int) string {
	switch {
	case streak >= 12:
		return "legendary"
	case streak >= 9:
		return "steadyAim"
	case streak >= 7:
		return "fastCharge"
	case streak >= 5:
		return "momentum"
	case streak >= 3:
		return "extraCore"
	default:
		return ""
	}
}

func (r *Room) handleKill(killer, victim *Player, headshot bool, now time.Time) {
	killer.Kills++
	killer.Killstreak++
	if killer.Killstreak > killer.BestKillstreak {
		killer.BestKillstreak = killer.Killstreak
	}
	victim.Deaths++
	victim.Killstreak = 0
	victim.DiedAt = now
	victim.ClearBuffs()
	victim.Charging = false

	tag := killstreakTag(killer.Killstreak)
	if tag == "extraCore" && killer.MaxHP < 4 {
		killer.MaxHP = 4
		killer.HP = min(killer.HP+1, killer.MaxHP)
	}

	instant := false
	if victim.InstantRespawnCharges > 0 {
		victim.InstantRespawnCharges--
		instant = true
	}

	r.broadcastAll("playerKilled", map[string]any{
		"victimKey": victim.PlayerKey, "killerKey": killer.PlayerKey,
		"headshot": headshot, "killstreakTag": tag,
	})

	if instant {
		r.respawnPlayer(victim, now, true)
	}
}

func (r *Room) respawnPlayer(p *Player, now time.Time, instant bool) {
	spawn := r.nextSpawn()
	p.X, p.Y = spawn.X, spawn.Y
	p.HP = p.MaxHP
	p.ClearBuffs()
	p.Charging = false
	p.DiedAt = time.Time{}
	p.Input = InputState{}

	eventType := "playerRespawn"
	payload := map[string]any{"playerKey": p.PlayerKey, "x": p.X, "y": p.Y, "instant": instant}
	r.broadcastAll(eventType, payload)
	if instant {
		r.emit(p.PlayerKey, "instantRespawnUsed", map[string]any{
			"playerKey": p.PlayerKey, "remainingCharges": p.InstantRespawnCharges,
		})
	}
}

func (r *Room) checkBuffPickup(p *Player, now time.Time) {
	for _, b := range r.buffs {
		if !b.Active {
			continue
		}
		dx, dy := p.X-b.X, p.Y-b.Y
		if dx*dx+dy*dy > geometry.PlayerRadius*geometry.PlayerRadius {
			continue
		}
		b.Active = false
		b.InactiveAt = now
		r.applyBuff(p, b.Kind, now)
		r.broadcastAll("buffPickup", map[string]any{"playerKey": p.PlayerKey, "buffId": b.ID, "kind": string(b.Kind)})
	}
}

func (r *Room) applyBuff(p *Player, kind BuffKind, now time.Time) {
	const duration = 8 * time.Second
	switch kind {
	case BuffSpeed:
		p.SpeedBoostUntil = now.Add(duration)
	case BuffShield:
		p.ShieldUntil = now.Add(duration)
	case BuffInvisible:
		p.InvisibleUntil = now.Add(duration)
	case BuffHealth:
		p.HP = min(p.HP+HealAmount, p.MaxHP)
	}
}

func (r *Room) advanceBuffs(now time.Time) {
	for _, b := range r.buffs {
		if b.Active || b.InactiveAt.IsZero() {
			continue
		}
		if now.Sub(b.InactiveAt) >= BuffRespawnMS*time.Millisecond {
			b.Active = true
			b.Kind = buffKinds[int(now.UnixNano())%len(buffKinds)]
			r.broadcastAll("buffRespawn", map[string]any{"buffId": b.ID, "kind": string(b.Kind)})
		}
	}
}

func (r *Room) endMatch(now time.Time) {
	stats := make([]MatchStat, 0, len(r.players))
	recipients := make([]string, 0, len(r.players))
	for _, p := range r.players {
		stats = append(stats, MatchStat{
			PlayerKey: p.PlayerKey, PersistentID: p.PersistentID, DisplayName: p.DisplayName,
			Kills: p.Kills, Deaths: p.Deaths, BestKillstreak: p.BestKillstreak,
		})
		recipients = append(recipients, p.PersistentID)
		if r.onRewardRestore != nil {
			r.onRewardRestore(p.PersistentID, p.InstantRespawnCharges)
		}
	}
	r.lastResults = stats

	if r.onMatchEnd != nil {
		r.onMatchEnd(r.Code, r.matchID, stats, recipients)
	}

	wireStats := make([]protocol.PlayerMatchStat, 0, len(stats))
	for _, s := range stats {
		wireStats = append(wireStats, protocol.PlayerMatchStat{
			PlayerKey: s.PlayerKey, DisplayName: s.DisplayName,
			Kills: s.Kills, Deaths: s.Deaths, Killstreak: s.BestKillstreak,
		})
	}
	r.broadcastAll("gameEnd", protocol.GameEnd{MatchID: r.matchID, Stats: wireStats})
	r.broadcastAll("matchResultsPending", protocol.MatchResultsPending{MatchID: r.matchID, Stats: wireStats})

	r.state = StateLobby
	for key, p := range r.players {
		p.Ready = key == r.leaderKey
	}
	r.broadcastLobbyUpdate()
}
