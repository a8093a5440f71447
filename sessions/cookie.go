package sessions

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
	"golang.org/x/crypto/hkdf"
)

const (
	// CookieName is the name of the cookie carrying the signed session id
	CookieName = "sqlb_session"

	cookieKeyInfo = "sqlite-browser session cookie v1"
)

type cookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// CookieCodec signs session ids into cookie values and verifies them on the
// way back. The cookie never carries session content, only the id.
type CookieCodec struct {
	key    []byte
	ttl    time.Duration
	domain string
	now    func() time.Time
}

// NewCookieCodec derives the signing key from secret with HKDF-SHA256
func NewCookieCodec(secret []byte, ttl time.Duration, domain string) (*CookieCodec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty session secret", errors.ErrInvalidConfig)
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(cookieKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive cookie key: %w", err)
	}
	return &CookieCodec{
		key:    key,
		ttl:    ttl,
		domain: domain,
		now:    time.Now,
	}, nil
}

// Encode returns the signed cookie value for id
func (c *CookieCodec) Encode(id string) (string, error) {
	now := c.now()
	claims := cookieClaims{
		SessionID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return value, nil
}

// Decode verifies value and returns the session id it carries. Any failure,
// including expiry and a foreign signing key, is ErrInvalidSessionCookie.
func (c *CookieCodec) Decode(value string) (string, error) {
	claims := &cookieClaims{}
	token, err := jwt.ParseWithClaims(value, claims,
		func(*jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidSessionCookie, "%v", err)
	}
	if !token.Valid || claims.SessionID == "" {
		return "", errors.ErrInvalidSessionCookie
	}
	return claims.SessionID, nil
}

// Read returns the session id from the request cookie
func (c *CookieCodec) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", errors.ErrSessionNotFound
	}
	return c.Decode(cookie.Value)
}

// Write issues the session cookie for id
func (c *CookieCodec) Write(w http.ResponseWriter, id string, secure bool) error {
	value, err := c.Encode(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Domain:   c.domain,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.ttl.Seconds()),
	})
	return nil
}

// Expire tells the browser to drop the session cookie
func (c *CookieCodec) Expire(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   c.domain,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
