// Package matchresult buffers completed-match statistics per persistent
// profile id until the client acknowledges having seen them (spec §3,
// §4.9): results survive a disconnect across the lobby transition, expire
//30 minutes after the match ended, and acking is idempotent (a duplicate
// ack is a no-op, not an error). Grounded on the teacher's keyed-map
// bookkeeping idiom (hub.go's players/subscribers maps).
package matchresult

import (
	"sync"
	"time"

	"arenaserver/internal/protocol"
)

const expiry = 30 * time.Minute

type pendingResult struct {
	matchID string
	stats   []protocol.PlayerMatchStat
	endedAt time.Time
	seenBy  map[string]bool
}

// Store holds at most one pending match result per persistent profile id.
// A later match result for the same id overwrites an unacked earlier one.
type Store struct {
	mu      sync.Mutex
	results map[string]*pendingResult
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{results: make(map[string]*pendingResult), now: time.Now}
}

func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Publish records match results for every persistent id in recipients.
func (s *Store) Publish(matchID string, stats []protocol.PlayerMatchStat, recipients []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, persistentID := range recipients {
		s.results[persistentID] = &pendingResult{
			matchID: matchID,
			stats:   stats,
			endedAt: now,
			seenBy:  make(map[string]bool),
		}
	}
}

// Pending returns the unexpired pending result for persistentID, if any.
func (s *Store) Pending(persistentID string) ([]protocol.PlayerMatchStat, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(persistentID)
	r, ok := s.results[persistentID]
	if !ok {
		return nil, "", false
	}
	return r.stats, r.matchID, true
}

// Ack marks matchID as seen by persistentID. Acking a match the caller has
// no pending result for, or a match id that no longer matches the pending
// one, is a harmless no-op — acks are idempotent per spec §4.9.
func (s *Store) Ack(persistentID, matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(persistentID)
	r, ok := s.results[persistentID]
	if !ok || r.matchID != matchID {
		return
	}
	r.seenBy[persistentID] = true
	delete(s.results, persistentID)
}

func (s *Store) evictLocked(persistentID string) {
	r, ok := s.results[persistentID]
	if !ok {
		return
	}
	if s.now().Sub(r.endedAt) > expiry {
		delete(s.results, persistentID)
	}
}
