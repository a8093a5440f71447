package auth

import (
	"net/http"

	"github.com/jrsteele09/go-sqlite-browser/sessions"
	"github.com/rs/zerolog/log"
)

// redirectToProvider stores a fresh state on the session and sends the
// browser to the authorization endpoint. Any earlier pending state is
// replaced, which also abandons a claim left behind by an interrupted
// exchange.
func (g *Gate) redirectToProvider(w http.ResponseWriter, r *http.Request, sessionID string) {
	state, err := GenerateState()
	if err != nil {
		log.Err(err).Msg("Failed to generate state")
		http.Error(w, "failed to start login", http.StatusInternalServerError)
		return
	}

	_, err = g.store.Update(r.Context(), sessionID, func(s *sessions.Session) error {
		s.OAuthState = state
		s.ExchangeInFlight = false
		return nil
	})
	if err != nil {
		log.Err(err).Msg("Failed to persist state")
		http.Error(w, "session storage unavailable", http.StatusInternalServerError)
		return
	}

	log.Debug().Str("path", r.URL.Path).Msg("Redirecting to identity provider")
	redirect(w, g.provider.AuthCodeURL(state, CallbackURL(r)))
}
