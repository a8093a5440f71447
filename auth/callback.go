package auth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
	"github.com/jrsteele09/go-sqlite-browser/internal/metrics"
	"github.com/jrsteele09/go-sqlite-browser/sessions"
	"github.com/rs/zerolog/log"
)

var (
	errNoPendingState    = errors.New("no pending state")
	errStateMismatch     = errors.New("state mismatch")
	errHandshakeInFlight = errors.New("exchange already in flight")
)

// OAuthCallbackHandler completes the authorization-code flow
func (g *Gate) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := g.cookies.Read(r)
		if err != nil {
			id = ""
		}

		outcome := g.Complete(r.Context(), id, r.URL.Query(), CallbackURL(r))
		metrics.RecordCallback(outcome.Name())

		if _, ok := outcome.(Authenticated); ok {
			// refresh the cookie lifetime alongside the new login
			if err := g.cookies.Write(w, id, IsSecure(r)); err != nil {
				log.Err(err).Msg("Failed to refresh session cookie")
			}
			log.Info().Msg("Session authenticated")
			redirect(w, g.postLoginURL)
			return
		}

		logOutcome(outcome)
		w.Header().Set("Cache-Control", "no-store")
		http.Error(w, outcome.Detail(), outcome.Status())
	}
}

// Complete drives one callback through state validation, token exchange and
// profile verification. Only one callback per pending state may be past the
// state check at a time; a failed attempt leaves the state in place so the
// same callback can be retried.
func (g *Gate) Complete(ctx context.Context, sessionID string, query url.Values, redirectURI string) Outcome {
	if code := query.Get("error"); code != "" {
		return ProviderDenied{Code: code, Description: query.Get("error_description")}
	}

	code, state := query.Get("code"), query.Get("state")
	if code == "" || state == "" {
		return MissingParams{}
	}
	if sessionID == "" {
		return StateMissing{}
	}

	_, err := g.store.Update(ctx, sessionID, func(s *sessions.Session) error {
		switch {
		case s.OAuthState == "":
			return errNoPendingState
		case !statesEqual(s.OAuthState, state):
			return errStateMismatch
		case s.ExchangeInFlight:
			return errHandshakeInFlight
		}
		s.ExchangeInFlight = true
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrSessionNotFound), errors.Is(err, errNoPendingState):
		return StateMissing{}
	case errors.Is(err, errStateMismatch):
		return StateMismatch{}
	case errors.Is(err, errHandshakeInFlight):
		return HandshakeInFlight{}
	default:
		return StoreFailed{Err: err}
	}

	token, err := g.provider.Exchange(ctx, code, redirectURI)
	if err != nil {
		g.release(ctx, sessionID)
		return exchangeOutcome(err)
	}

	if err := g.provider.FetchProfile(ctx, token); err != nil {
		g.release(ctx, sessionID)
		return profileOutcome(err)
	}

	_, err = g.store.Update(ctx, sessionID, func(s *sessions.Session) error {
		s.AccessToken = token
		s.OAuthState = ""
		s.ExchangeInFlight = false
		return nil
	})
	if err != nil {
		g.release(ctx, sessionID)
		return StoreFailed{Err: err}
	}
	return Authenticated{}
}

// release drops the in-flight claim but keeps the pending state
func (g *Gate) release(ctx context.Context, sessionID string) {
	_, err := g.store.Update(context.WithoutCancel(ctx), sessionID, func(s *sessions.Session) error {
		s.ExchangeInFlight = false
		return nil
	})
	if err != nil && !errors.Is(err, errors.ErrSessionNotFound) {
		log.Err(err).Msg("Failed to release exchange claim")
	}
}

func exchangeOutcome(err error) Outcome {
	var pErr *ProviderError
	switch {
	case errors.As(err, &pErr):
		return ExchangeRejected{ProviderStatus: pErr.StatusCode, Body: pErr.Body}
	case errors.Is(err, ErrMissingAccessToken):
		return MissingAccessToken{}
	default:
		return ExchangeFailed{Err: err}
	}
}

func profileOutcome(err error) Outcome {
	var pErr *ProviderError
	if errors.As(err, &pErr) {
		return ProfileRejected{ProviderStatus: pErr.StatusCode, Body: pErr.Body}
	}
	return ProfileFailed{Err: err}
}

func logOutcome(o Outcome) {
	event := log.Warn().Str("outcome", o.Name()).Int("status", o.Status())
	switch v := o.(type) {
	case ProviderDenied:
		event = event.Str("provider_error", v.Code)
	case ExchangeRejected:
		event = event.Int("provider_status", v.ProviderStatus)
	case ProfileRejected:
		event = event.Int("provider_status", v.ProviderStatus)
	case ExchangeFailed:
		event = event.Err(v.Err)
	case ProfileFailed:
		event = event.Err(v.Err)
	case StoreFailed:
		event = log.Error().Str("outcome", o.Name()).Err(v.Err)
	}
	event.Msgf("OAuth callback failed (%d)", o.Status())
}
