// Package auth gates routes behind an OAuth2 authorization-code login against
// an external identity provider. The provider's access token is the only
// credential; the gate keeps it in a server-side session referenced by a
// signed cookie.
package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
	"github.com/jrsteele09/go-sqlite-browser/internal/metrics"
	"github.com/jrsteele09/go-sqlite-browser/sessions"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores a copy of the authenticated session
	ContextKeySession ContextKey = "session"
	// ContextKeySessionID stores the opaque session id
	ContextKeySessionID ContextKey = "session_id"
)

// Gate holds everything the login flow needs. It is safe for concurrent use.
type Gate struct {
	provider     *Provider
	store        sessions.Store
	cookies      *sessions.CookieCodec
	postLoginURL string
}

// NewGate wires the provider client, session store and cookie codec together
func NewGate(provider *Provider, store sessions.Store, cookies *sessions.CookieCodec, postLoginURL string) *Gate {
	return &Gate{
		provider:     provider,
		store:        store,
		cookies:      cookies,
		postLoginURL: postLoginURL,
	}
}

// RequireSession forwards authenticated requests and sends everyone else to
// the provider's authorization endpoint
func (g *Gate) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			id, session, err := g.loadSession(r)
			if errors.Is(err, errors.ErrSessionNotFound) {
				id, session, err = g.startSession(w, r)
			}
			if err != nil {
				metrics.RecordGateDecision("error")
				log.Err(err).Str("path", r.URL.Path).Msg("Failed to resolve session")
				http.Error(w, "session storage unavailable", http.StatusInternalServerError)
				return
			}

			if session.Authenticated() {
				metrics.RecordGateDecision("forwarded")
				ctx := context.WithValue(r.Context(), ContextKeySession, session)
				ctx = context.WithValue(ctx, ContextKeySessionID, id)
				next(w, r.WithContext(ctx))
				return
			}

			metrics.RecordGateDecision("redirected")
			g.redirectToProvider(w, r, id)
		}
	}
}

// IsAuthenticated reports whether the request passed the gate
func IsAuthenticated(ctx context.Context) bool {
	session, ok := ctx.Value(ContextKeySession).(*sessions.Session)
	return ok && session.Authenticated()
}

// AccessToken returns the provider token of the authenticated session
func AccessToken(ctx context.Context) (string, bool) {
	session, ok := ctx.Value(ContextKeySession).(*sessions.Session)
	if !ok || !session.Authenticated() {
		return "", false
	}
	return session.AccessToken, true
}

// loadSession resolves the cookie to a stored session. A missing, tampered or
// stale cookie is reported as ErrSessionNotFound.
func (g *Gate) loadSession(r *http.Request) (string, *sessions.Session, error) {
	id, err := g.cookies.Read(r)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidSessionCookie) {
			log.Debug().Err(err).Msg("Discarding invalid session cookie")
		}
		return "", nil, errors.ErrSessionNotFound
	}
	session, err := g.store.Get(r.Context(), id)
	if err != nil {
		return "", nil, err
	}
	return id, session, nil
}

func (g *Gate) startSession(w http.ResponseWriter, r *http.Request) (string, *sessions.Session, error) {
	id, session, err := g.store.Create(r.Context())
	if err != nil {
		return "", nil, err
	}
	if err := g.cookies.Write(w, id, IsSecure(r)); err != nil {
		return "", nil, err
	}
	return id, session, nil
}
