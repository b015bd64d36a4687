package anticheat

import (
	"testing"
	"time"

	"arenaserver/internal/config"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.AntiCheatMode = config.AntiCheatEnforce
	return cfg
}

func TestStrikeEscalatesAtThresholds(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	e := New(testConfig(), nil).WithClock(func() time.Time { return now })

	var last Level
	for i := 0; i < 10; i++ {
		last = e.Strike("12345", "player-1", ReasonToggleSpam)
		now = now.Add(10 * time.Millisecond)
	}
	if last != LevelHardBlock {
		t.Fatalf("expected hard block at 10 strikes, got %v", last)
	}

	level, blocked := e.Blocked("player-1")
	if !blocked || level != LevelHardBlock {
		t.Fatalf("expected player blocked at hard level, got %v blocked=%v", level, blocked)
	}
}

func TestStrikeWindowExpires(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	e := New(testConfig(), nil).WithClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		e.Strike("12345", "player-1", ReasonToggleSpam)
	}
	now = now.Add(strikeWindow + time.Second)
	level := e.Strike("12345", "player-1", ReasonToggleSpam)
	if level != LevelNone {
		t.Fatalf("expected strikes to have expired out of window, got %v", level)
	}
}

func TestObserveModeNeverBlocks(t *testing.T) {
	cfg := config.Default()
	cfg.AntiCheatMode = config.AntiCheatObserve
	e := New(cfg, nil)

	for i := 0; i < 20; i++ {
		e.Strike("12345", "player-1", ReasonToggleSpam)
	}
	_, blocked := e.Blocked("player-1")
	if blocked {
		t.Fatalf("observe mode must never block")
	}
}
