package auth

import (
	"net/http"

	"github.com/jrsteele09/go-sqlite-browser/internal/metrics"
	"github.com/rs/zerolog/log"
)

// LogoutHandler discards the local session and expires the cookie. The
// provider's own session is left alone.
func (g *Gate) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, err := g.cookies.Read(r); err == nil {
			if err := g.store.Clear(r.Context(), id); err != nil {
				log.Err(err).Msg("Failed to clear session on logout")
			}
		}
		g.cookies.Expire(w, IsSecure(r))
		metrics.Logouts.Inc()
		redirect(w, g.postLoginURL)
	}
}
