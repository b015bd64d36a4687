package reward

import "testing"

func TestConsumeAtMatchStartGrantsChargesOnce(t *testing.T) {
	s := NewStore()
	s.SetPending("player-1")

	if !s.IsPending("player-1") {
		t.Fatalf("expected pending reward")
	}
	charges := s.ConsumeAtMatchStart("player-1")
	if charges != StartingCharges {
		t.Fatalf("expected %d charges, got %d", StartingCharges, charges)
	}
	if s.IsPending("player-1") {
		t.Fatalf("expected flag cleared after consumption")
	}
	if again := s.ConsumeAtMatchStart("player-1"); again != 0 {
		t.Fatalf("expected 0 charges on second consume, got %d", again)
	}
}

func TestRestoreIfUnusedReArmsFlag(t *testing.T) {
	s := NewStore()
	s.SetPending("player-1")
	s.ConsumeAtMatchStart("player-1")

	s.RestoreIfUnused("player-1", StartingCharges)
	if !s.IsPending("player-1") {
		t.Fatalf("expected flag restored when unused")
	}
}

func TestRestoreIfUnusedSkipsWhenPartiallyUsed(t *testing.T) {
	s := NewStore()
	s.SetPending("player-1")
	s.ConsumeAtMatchStart("player-1")

	s.RestoreIfUnused("player-1", StartingCharges-1)
	if s.IsPending("player-1") {
		t.Fatalf("expected flag to stay cleared when charges were spent")
	}
}
