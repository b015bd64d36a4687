// Package anticheat implements the anti-abuse engine (spec §4.7): strike
// accumulation in a rolling window, escalation to warn/soft-block/hard-block,
// and an append-only audit trail. The audit trail rides on the teacher's
// generic logging.Router/Sink machinery (kept from mine-and-die's
// logging package) rather than a bespoke writer, since it already provides
// buffered async dispatch, JSONL file sinks, and a capped in-memory ring
// (sinks.NewCappedMemorySink, added to the teacher's MemorySink for this
// purpose).
package anticheat

import (
	"context"
	"sync"
	"time"

	"arenaserver/internal/config"
	"arenaserver/logging"
)

// StrikeReason is a closed enum of why a strike was issued, per this spec's
// design note preferring enums over free-text reason strings (§9).
type StrikeReason string

const (
	ReasonSequenceOutOfWindow  StrikeReason = "sequence_out_of_window"
	ReasonMalformedInput       StrikeReason = "malformed_input"
	ReasonToggleSpam           StrikeReason = "toggle_spam"
	ReasonFireRateExceeded     StrikeReason = "fire_rate_exceeded"
	ReasonChargeTooShort       StrikeReason = "charge_too_short"
	ReasonActiveProjectileCap  StrikeReason = "active_projectile_cap"
	ReasonAngleMismatchWarn    StrikeReason = "angle_mismatch_warn"
	ReasonAngleMismatchReject  StrikeReason = "angle_mismatch_reject"
	ReasonMuzzleOriginInvalid  StrikeReason = "muzzle_origin_invalid"
	ReasonOriginObstructed     StrikeReason = "origin_obstructed"
	ReasonShotPathOccluded     StrikeReason = "shot_path_occluded"
	ReasonStaleInput           StrikeReason = "stale_input"
)

// Level is the escalation tier a strike count has crossed into.
type Level string

const (
	LevelNone      Level = "none"
	LevelWarn      Level = "warn"
	LevelSoftBlock Level = "soft_block"
	LevelHardBlock Level = "hard_block"
)

const strikeWindow = 15 * time.Second

type playerState struct {
	strikes      []time.Time
	blockedUntil time.Time
	blockLevel   Level
	lastLogAt    time.Time
}

const logCooldown = 1200 * time.Millisecond

// Engine tracks per-player strike history and issues escalation decisions.
// Mode selects whether escalations actually block gameplay (enforce) or are
// only recorded for later analysis (observe).
type Engine struct {
	mu      sync.Mutex
	players map[string]*playerState
	router  *logging.Router
	mode    config.AntiCheatMode

	warnThreshold int
	softThreshold int
	hardThreshold int
	softBlockMS   int
	hardBlockMS   int

	now func() time.Time
}

func New(cfg config.Config, router *logging.Router) *Engine {
	return &Engine{
		players:       make(map[string]*playerState),
		router:        router,
		mode:          cfg.AntiCheatMode,
		warnThreshold: cfg.AntiCheatWarnThreshold,
		softThreshold: cfg.AntiCheatSoftThreshold,
		hardThreshold: cfg.AntiCheatHardThreshold,
		softBlockMS:   cfg.AntiCheatSoftBlockMS,
		hardBlockMS:   cfg.AntiCheatHardBlockMS,
		now:           time.Now,
	}
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Blocked reports whether playerKey is currently serving a soft/hard block.
// In observe mode this always returns false: strikes are logged but never
// enforced.
func (e *Engine) Blocked(playerKey string) (Level, bool) {
	if e.mode != config.AntiCheatEnforce {
		return LevelNone, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.players[playerKey]
	if !ok {
		return LevelNone, false
	}
	now := e.now()
	if now.Before(st.blockedUntil) {
		return st.blockLevel, true
	}
	return LevelNone, false
}

// Strike records a strike for playerKey with the given reason and roomCode
// (for the audit event's context), returning the escalation level the
// player's rolling-window strike count now sits at.
func (e *Engine) Strike(roomCode, playerKey string, reason StrikeReason) Level {
	e.mu.Lock()
	now := e.now()
	st, ok := e.players[playerKey]
	if !ok {
		st = &playerState{}
		e.players[playerKey] = st
	}

	cutoff := now.Add(-strikeWindow)
	kept := st.strikes[:0]
	for _, t := range st.strikes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	st.strikes = append(kept, now)
	count := len(st.strikes)

	level := LevelNone
	switch {
	case count >= e.hardThreshold:
		level = LevelHardBlock
		st.blockLevel = level
		st.blockedUntil = now.Add(time.Duration(e.hardBlockMS) * time.Millisecond)
	case count >= e.softThreshold:
		level = LevelSoftBlock
		st.blockLevel = level
		st.blockedUntil = now.Add(time.Duration(e.softBlockMS) * time.Millisecond)
	case count >= e.warnThreshold:
		level = LevelWarn
	}

	shouldLog := now.Sub(st.lastLogAt) >= logCooldown || level == LevelHardBlock
	if shouldLog {
		st.lastLogAt = now
	}
	e.mu.Unlock()

	if shouldLog && e.router != nil {
		e.router.Publish(context.Background(), logging.Event{
			Type:     logging.EventType("anti_cheat_strike"),
			Time:     now,
			Actor:    logging.EntityRef{ID: playerKey, Kind: logging.EntityKindPlayer},
			Severity: severityFor(level),
			Category: logging.CategoryAntiCheat,
			Payload: map[string]any{
				"roomCode": roomCode,
				"reason":   string(reason),
				"level":    string(level),
				"count":    count,
				"mode":     string(e.mode),
			},
		})
	}

	return level
}

func severityFor(level Level) logging.Severity {
	switch level {
	case LevelHardBlock:
		return logging.SeverityError
	case LevelSoftBlock:
		return logging.SeverityWarn
	case LevelWarn:
		return logging.SeverityWarn
	default:
		return logging.SeverityInfo
	}
}

// Forget drops tracked state for playerKey, called by Hub.Disconnect
// whenever that player's connection closes.
func (e *Engine) Forget(playerKey string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.players, playerKey)
}
