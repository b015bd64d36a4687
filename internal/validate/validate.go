// Package validate implements the input-validation rules of spec §4.6:
// sequence-window and finiteness checks on playerInput, the toggle-spam
// meter, and the fire-rate/charge-duration/angle/origin checks on
// fireProjectile. Kept free of any room/player types so it has no import
// cycle with internal/room, which calls into it; this also keeps the rules
// independently testable against plain values, in the spirit of the
// teacher's small single-purpose helper functions (obstacles.go's
// circleRectOverlap/clamp).
package validate

import (
	"math"
	"time"

	"arenaserver/internal/geometry"
)

// SequenceWindow reports whether seq is acceptable given the highest
// previously-accepted sequence lastSeq, per spec §4.6: accepted range is
// [lastSeq-2, lastSeq+200], and always within [0, 1e9].
func SequenceWindow(lastSeq, seq int64) bool {
	if seq < 0 || seq > 1_000_000_000 {
		return false
	}
	return seq >= lastSeq-2 && seq <= lastSeq+200
}

// FiniteAngle reports whether angle is a finite, usable radian value.
func FiniteAngle(angle float64) bool {
	return !math.IsNaN(angle) && !math.IsInf(angle, 0)
}

// ToggleSpamMeter accumulates Δt-weighted points for rapid direction-key
// flapping (spec §4.6): the faster two opposite-direction toggles happen,
// the more points they cost, decaying via a 1500ms rolling window.
type ToggleSpamMeter struct {
	points    float64
	windowAt  time.Time
}

const (
	ToggleSpamWindow    = 1500 * time.Millisecond
	ToggleSpamThreshold = 45.0
)

// Accumulate records a direction toggle observed dt after the previous one
// and returns the updated point total and whether the strike threshold has
// now been crossed.
func (m *ToggleSpamMeter) Accumulate(now time.Time, dt time.Duration) (points float64, strike bool) {
	if m.windowAt.IsZero() || now.Sub(m.windowAt) > ToggleSpamWindow {
		m.points = 0
	}
	m.windowAt = now

	switch {
	case dt < 50*time.Millisecond:
		m.points += 3
	case dt < 100*time.Millisecond:
		m.points += 2
	default:
		m.points += 1
	}

	if m.points >= ToggleSpamThreshold {
		m.points = 0
		return ToggleSpamThreshold, true
	}
	return m.points, false
}

// FireRateOK reports whether enough time has passed since lastShotAt for a
// new shot (spec §4.6: 140ms minimum between shots).
func FireRateOK(lastShotAt, now time.Time) bool {
	return lastShotAt.IsZero() || now.Sub(lastShotAt) >= 140*time.Millisecond
}

// ChargeHoldOK reports whether a charge held for holdMS satisfies the
// required charge duration, allowing a 90ms grace under the threshold
// (spec §8: 910ms is accepted against a 1000ms requirement, 909ms is not).
func ChargeHoldOK(holdMS, requiredMS int64) bool {
	return holdMS >= requiredMS-90
}

// AngleMismatch compares the fired shot angle against the player's last
// validated input angle (spec §4.6): beyond warnRadians it's suspicious but
// allowed, beyond rejectRadians it's rejected outright.
const (
	AngleMismatchWarnRadians   = 1.8
	AngleMismatchRejectRadians = 2.75
)

func AngleMismatch(shotAngle, inputAngle float64) (warn, reject bool) {
	delta := math.Abs(geometry.NormalizeAngle(shotAngle - inputAngle))
	if delta > AngleMismatchRejectRadians {
		return true, true
	}
	if delta > AngleMismatchWarnRadians {
		return true, false
	}
	return false, false
}

// MuzzleOriginDistanceOK reports whether the claimed muzzle origin distance
// from the shooter sits within spec §4.6's accepted band (25 ± 6 px).
func MuzzleOriginDistanceOK(shooterX, shooterY, originX, originY float64) bool {
	dist := math.Hypot(originX-shooterX, originY-shooterY)
	return dist >= 25-6 && dist <= 25+6
}

// InputStaleness reports whether the player's last validated input is too
// old to trust for a fire request (spec §4.6: reject if >4s stale).
func InputStaleness(lastInputAt, now time.Time) bool {
	return lastInputAt.IsZero() || now.Sub(lastInputAt) > 4*time.Second
}

// ActiveProjectileCapOK reports whether count active projectiles for a
// player is below the per-player cap.
func ActiveProjectileCapOK(count, cap int) bool {
	return count < cap
}
