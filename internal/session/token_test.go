package session

import (
	"testing"
	"time"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := NewManager("test-secret")
	token, expiresAt, err := m.Issue("device-1", "Guest1", "profile-1", "1234", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if expiresAt == 0 {
		t.Fatalf("expected nonzero expiry")
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.PersistentID != "device-1" || claims.ProfileID != "profile-1" || claims.DisplayName != "Guest1" || claims.FriendCode != "1234" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Nonce == "" {
		t.Fatalf("expected nonzero nonce")
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	m := NewManager("test-secret")
	token, _, err := m.Issue("device-1", "Guest1", "profile-1", "", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	// Alter the second-to-last signature character: all six of its bits
	// are significant, unlike the final character's trailing padding bits.
	i := len(token) - 2
	repl := "A"
	if token[i] == 'A' {
		repl = "B"
	}
	tampered := token[:i] + repl + token[i+1:]
	if _, err := m.Verify(tampered); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManager("test-secret").WithClock(func() time.Time { return base })
	token, _, err := m.Issue("device-1", "Guest1", "profile-1", "", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	m.WithClock(func() time.Time { return base.Add(TTL + time.Second) })
	if _, err := m.Verify(token); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestReconnectGuardAllowsUpToLimit(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	g := NewReconnectGuard().WithClock(func() time.Time { return now })

	for i := 0; i < reconnectMaxAttempts; i++ {
		allowed, _ := g.Allow("device-1")
		if !allowed {
			t.Fatalf("attempt %d: expected allowed", i)
		}
	}

	allowed, retryAfter := g.Allow("device-1")
	if allowed {
		t.Fatalf("7th attempt should be denied")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", retryAfter)
	}
}

func TestReconnectGuardWindowExpires(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	g := NewReconnectGuard().WithClock(func() time.Time { return now })

	for i := 0; i < reconnectMaxAttempts; i++ {
		g.Allow("device-1")
	}
	now = base.Add(reconnectWindow + time.Second)
	allowed, _ := g.Allow("device-1")
	if !allowed {
		t.Fatalf("expected allowed after window expiry")
	}
}
