package session

import (
	"sync"
	"time"
)

// ReconnectGuard enforces spec §4.5's reconnection rate limit: at most 6
// reconnect attempts per persistent device id within a 20s rolling window.
type ReconnectGuard struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

const (
	reconnectMaxAttempts = 6
	reconnectWindow      = 20 * time.Second
)

func NewReconnectGuard() *ReconnectGuard {
	return &ReconnectGuard{
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

func (g *ReconnectGuard) WithClock(now func() time.Time) *ReconnectGuard {
	g.now = now
	return g
}

// Allow records an attempt for deviceID and reports whether it is permitted.
// When denied it also returns the time until the oldest attempt in the
// window expires, for the reconnectLimited retry-after hint.
func (g *ReconnectGuard) Allow(deviceID string) (allowed bool, retryAfter time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	cutoff := now.Add(-reconnectWindow)
	kept := g.attempts[deviceID][:0]
	for _, t := range g.attempts[deviceID] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	g.attempts[deviceID] = kept

	if len(kept) >= reconnectMaxAttempts {
		oldest := kept[0]
		return false, oldest.Add(reconnectWindow).Sub(now)
	}

	g.attempts[deviceID] = append(g.attempts[deviceID], now)
	return true, 0
}

// Reset clears tracked attempts for deviceID.
func (g *ReconnectGuard) Reset(deviceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.attempts, deviceID)
}
