package validate

import (
	"testing"
	"time"
)

func TestSequenceWindow(t *testing.T) {
	cases := []struct {
		lastSeq, seq int64
		want         bool
	}{
		{100, 100, true},
		{100, 98, true},
		{100, 97, false},
		{100, 300, true},
		{100, 301, false},
		{100, -1, false},
		{100, 1_000_000_001, false},
	}
	for _, c := range cases {
		if got := SequenceWindow(c.lastSeq, c.seq); got != c.want {
			t.Errorf("SequenceWindow(%d, %d) = %v, want %v", c.lastSeq, c.seq, got, c.want)
		}
	}
}

func TestChargeHoldBoundary(t *testing.T) {
	if !ChargeHoldOK(910, 1000) {
		t.Fatalf("910ms against 1000ms requirement should be accepted")
	}
	if ChargeHoldOK(909, 1000) {
		t.Fatalf("909ms against 1000ms requirement should be rejected")
	}
}

func TestFireRateOK(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !FireRateOK(time.Time{}, base) {
		t.Fatalf("zero lastShotAt should always allow first shot")
	}
	if FireRateOK(base, base.Add(139*time.Millisecond)) {
		t.Fatalf("139ms since last shot should be rejected")
	}
	if !FireRateOK(base, base.Add(140*time.Millisecond)) {
		t.Fatalf("140ms since last shot should be accepted")
	}
}

func TestAngleMismatch(t *testing.T) {
	warn, reject := AngleMismatch(0, 0)
	if warn || reject {
		t.Fatalf("zero delta should not warn or reject")
	}
	warn, reject = AngleMismatch(0, 2.0)
	if !warn || reject {
		t.Fatalf("2.0 rad delta should warn but not reject, got warn=%v reject=%v", warn, reject)
	}
	warn, reject = AngleMismatch(0, 3.0)
	if !warn || !reject {
		t.Fatalf("3.0 rad delta should reject, got warn=%v reject=%v", warn, reject)
	}
}

func TestMuzzleOriginDistanceOK(t *testing.T) {
	if !MuzzleOriginDistanceOK(0, 0, 25, 0) {
		t.Fatalf("exact 25px origin distance should be accepted")
	}
	if !MuzzleOriginDistanceOK(0, 0, 19, 0) {
		t.Fatalf("19px (25-6) origin distance should be accepted")
	}
	if MuzzleOriginDistanceOK(0, 0, 10, 0) {
		t.Fatalf("10px origin distance should be rejected")
	}
}

func TestToggleSpamMeterEscalates(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := &ToggleSpamMeter{}
	triggered := false
	for i := 0; i < 20; i++ {
		_, strike := m.Accumulate(base.Add(time.Duration(i)*30*time.Millisecond), 30*time.Millisecond)
		if strike {
			triggered = true
			break
		}
	}
	if !triggered {
		t.Fatalf("expected rapid sub-50ms toggles to eventually strike")
	}
}
