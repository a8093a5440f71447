package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// idBytes is the entropy of a session id (256 bits)
const idBytes = 32

// Session is the server-side state of one browser.
//
// OAuthState is only set while an authorization handshake is in flight and
// is single-use: a successful callback clears it. ExchangeInFlight marks that
// a callback has claimed the state and is talking to the provider, so a
// duplicate callback cannot claim it a second time.
type Session struct {
	AccessToken      string    `json:"access_token,omitempty"`
	OAuthState       string    `json:"oauth_state,omitempty"`
	ExchangeInFlight bool      `json:"exchange_in_flight,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// Authenticated reports whether the session holds an access token
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Clone returns a copy that shares nothing with s
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// NewID returns a cryptographically random, base64url encoded session id
func NewID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// New returns an unauthenticated session valid for ttl from now
func New(now time.Time, ttl time.Duration) *Session {
	return &Session{
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}
