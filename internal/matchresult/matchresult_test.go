package matchresult

import (
	"testing"
	"time"

	"arenaserver/internal/protocol"
)

func TestPublishAndAckIsIdempotent(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	s := NewStore().WithClock(func() time.Time { return now })

	stats := []protocol.PlayerMatchStat{{PlayerKey: "p1", Kills: 5}}
	s.Publish("match-1", stats, []string{"p1"})

	got, matchID, ok := s.Pending("p1")
	if !ok || matchID != "match-1" || len(got) != 1 {
		t.Fatalf("expected pending result, got %v %q %v", got, matchID, ok)
	}

	s.Ack("p1", "match-1")
	if _, _, ok := s.Pending("p1"); ok {
		t.Fatalf("expected no pending result after ack")
	}

	// Second ack is a no-op, not an error.
	s.Ack("p1", "match-1")
}

func TestPendingExpiresAfterThirtyMinutes(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	s := NewStore().WithClock(func() time.Time { return now })

	s.Publish("match-1", []protocol.PlayerMatchStat{{PlayerKey: "p1"}}, []string{"p1"})
	now = base.Add(expiry + time.Second)

	if _, _, ok := s.Pending("p1"); ok {
		t.Fatalf("expected pending result to have expired")
	}
}
