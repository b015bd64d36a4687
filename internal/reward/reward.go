// Package reward tracks the instant-respawn reward flag (spec §4.9): a
// per-persistent-id pending flag, granted externally (e.g. by a rewarded-ad
// watch), consumed in up to 3 charges at match start, and restored at match
// end if unused. Grounded on the teacher's small-keyed-map-with-mutex
// pattern used throughout hub.go for per-player bookkeeping.
package reward

import (
	"sync"
	"time"
)

// StartingCharges is the number of instant-respawn uses a pending reward
// flag grants for the match it's consumed into (spec §4.9).
const StartingCharges = 3

type flag struct {
	pending   bool
	updatedAt time.Time
}

// Store holds the instant-respawn-pending flag per persistent profile id.
type Store struct {
	mu    sync.Mutex
	flags map[string]*flag
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{flags: make(map[string]*flag), now: time.Now}
}

func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// SetPending marks persistentID as having an instant-respawn reward ready
// to be consumed at the next match start.
func (s *Store) SetPending(persistentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[persistentID] = &flag{pending: true, updatedAt: s.now()}
}

// IsPending reports whether persistentID currently has an unconsumed
// instant-respawn reward.
func (s *Store) IsPending(persistentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flags[persistentID]
	return ok && f.pending
}

// ConsumeAtMatchStart clears the pending flag and returns the number of
// instant-respawn charges the match should grant this player (0 if no
// reward was pending).
func (s *Store) ConsumeAtMatchStart(persistentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flags[persistentID]
	if !ok || !f.pending {
		return 0
	}
	f.pending = false
	f.updatedAt = s.now()
	return StartingCharges
}

// RestoreIfUnused re-arms the pending flag for persistentID if the match
// ended without the player spending any of their granted charges, so the
// reward carries over to their next match (spec §4.9).
func (s *Store) RestoreIfUnused(persistentID string, chargesRemaining int) {
	if chargesRemaining < StartingCharges {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[persistentID] = &flag{pending: true, updatedAt: s.now()}
}
