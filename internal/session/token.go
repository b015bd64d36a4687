// Package session issues and verifies HMAC-signed session tokens (spec §3,
// §6.3) and tracks reconnection attempts per persistent device id. The
// signing/verification shape is grounded on abrahamVado-DriftPursuit's
// internal/auth/hmac.go, adapted from that source's 3-segment JWT-style
// token to this spec's 2-segment `payload.signature` format and claim set.
package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("session: invalid token")
	ErrExpiredToken = errors.New("session: token expired")
)

// TTL is the spec-mandated session lifetime (§6.3: 14 days).
const TTL = 14 * 24 * time.Hour

// Claims is the signed payload of a session token (spec §6.3:
// JSON{pid,name,exp,nonce,uid?,fc?,un?}).
type Claims struct {
	PersistentID string `json:"pid"`
	DisplayName  string `json:"name"`
	ExpiresAt    int64  `json:"exp"`
	Nonce        string `json:"nonce"`
	ProfileID    string `json:"uid,omitempty"`
	FriendCode   string `json:"fc,omitempty"`
	Username     string `json:"un,omitempty"`
}

// Manager signs and verifies tokens with a shared secret, matching the
// teacher's HMACTokenVerifier shape but folded into one signer/verifier type
// since this server both issues and checks its own tokens.
type Manager struct {
	secret []byte
	now    func() time.Time
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret), now: time.Now}
}

// WithClock overrides the time source, for deterministic tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Issue mints a new token for deviceID with TTL expiry. profileID, friendCode,
// and username are optional (linked-account fields) and omitted from the
// payload when empty, per spec §6.3.
func (m *Manager) Issue(deviceID, displayName, profileID, friendCode, username string) (string, int64, error) {
	issuedAt := m.now()
	nonce, err := newNonce()
	if err != nil {
		return "", 0, err
	}
	claims := Claims{
		PersistentID: deviceID,
		DisplayName:  displayName,
		ExpiresAt:    issuedAt.Add(TTL).Unix(),
		Nonce:        nonce,
		ProfileID:    profileID,
		FriendCode:   friendCode,
		Username:     username,
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", 0, err
	}
	encodedPayload := base64.RawURLEncoding.EncodeToString(payload)
	signature := m.sign(encodedPayload)
	token := encodedPayload + "." + base64.RawURLEncoding.EncodeToString(signature)
	return token, claims.ExpiresAt, nil
}

// Verify checks the signature and expiry of token and returns its claims.
func (m *Manager) Verify(token string) (Claims, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return Claims{}, ErrInvalidToken
	}
	encodedPayload, encodedSig := parts[0], parts[1]

	signature, err := base64.RawURLEncoding.DecodeString(encodedSig)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	expected := m.sign(encodedPayload)
	if !hmac.Equal(signature, expected) {
		return Claims{}, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, ErrInvalidToken
	}

	if m.now().Unix() > claims.ExpiresAt {
		return Claims{}, ErrExpiredToken
	}
	return claims, nil
}

func (m *Manager) sign(encodedPayload string) []byte {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(encodedPayload))
	return mac.Sum(nil)
}

// newNonce generates the random nonce spec §6.3 requires in every token
// payload, guarding against signature-reuse/replay of an otherwise identical
// claim set.
func newNonce() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
