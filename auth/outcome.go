package auth

import (
	"fmt"
	"net/http"
)

// Outcome is the terminal result of one callback. Every variant maps to
// exactly one HTTP status.
type Outcome interface {
	// Status is the HTTP status code sent to the browser
	Status() int
	// Detail is the human readable body for failures; empty on success
	Detail() string
	// Name labels the outcome in logs and metrics
	Name() string

	outcome()
}

// Authenticated means the token was exchanged, verified and stored
type Authenticated struct{}

// ProviderDenied means the provider redirected back with an error parameter
type ProviderDenied struct {
	Code        string
	Description string
}

// MissingParams means code or state was absent from the callback
type MissingParams struct{}

// StateMissing means the session has no pending state to compare against
type StateMissing struct{}

// StateMismatch means the returned state differs from the stored one
type StateMismatch struct{}

// HandshakeInFlight means another callback for the same state is exchanging
// the code right now
type HandshakeInFlight struct{}

// ExchangeRejected means the token endpoint answered with an error status
type ExchangeRejected struct {
	ProviderStatus int
	Body           string
}

// ExchangeFailed means the token endpoint could not be reached or timed out
type ExchangeFailed struct {
	Err error
}

// MissingAccessToken means the token endpoint answered 2xx without a token
type MissingAccessToken struct{}

// ProfileRejected means the profile endpoint refused the access token
type ProfileRejected struct {
	ProviderStatus int
	Body           string
}

// ProfileFailed means the profile endpoint could not be reached or timed out
type ProfileFailed struct {
	Err error
}

// StoreFailed means the session store itself errored
type StoreFailed struct {
	Err error
}

func (Authenticated) Status() int      { return http.StatusFound }
func (ProviderDenied) Status() int     { return http.StatusBadRequest }
func (MissingParams) Status() int      { return http.StatusBadRequest }
func (StateMissing) Status() int       { return http.StatusBadRequest }
func (StateMismatch) Status() int      { return http.StatusBadRequest }
func (HandshakeInFlight) Status() int  { return http.StatusConflict }
func (o ExchangeRejected) Status() int { return mirrorClientError(o.ProviderStatus) }
func (ExchangeFailed) Status() int     { return http.StatusBadGateway }
func (MissingAccessToken) Status() int { return http.StatusBadGateway }
func (o ProfileRejected) Status() int  { return mirrorClientError(o.ProviderStatus) }
func (ProfileFailed) Status() int      { return http.StatusBadGateway }
func (StoreFailed) Status() int        { return http.StatusInternalServerError }

func (Authenticated) Detail() string { return "" }

func (o ProviderDenied) Detail() string {
	if o.Description == "" {
		return "authorization failed: " + o.Code
	}
	return fmt.Sprintf("authorization failed: %s: %s", o.Code, o.Description)
}

func (MissingParams) Detail() string { return "missing code or state parameter" }
func (StateMissing) Detail() string  { return "no pending authorization state for this session" }
func (StateMismatch) Detail() string { return "state parameter does not match" }

func (HandshakeInFlight) Detail() string {
	return "authorization for this session is already in progress"
}

func (o ExchangeRejected) Detail() string {
	return fmt.Sprintf("token exchange failed: provider returned %d: %s", o.ProviderStatus, o.Body)
}

func (o ExchangeFailed) Detail() string { return "token exchange failed: provider unavailable" }

func (MissingAccessToken) Detail() string {
	return "token exchange failed: response did not contain an access token"
}

func (o ProfileRejected) Detail() string {
	return fmt.Sprintf("profile fetch failed: provider returned %d: %s", o.ProviderStatus, o.Body)
}

func (o ProfileFailed) Detail() string { return "profile fetch failed: provider unavailable" }
func (StoreFailed) Detail() string     { return "session storage unavailable" }

func (Authenticated) Name() string      { return "authenticated" }
func (ProviderDenied) Name() string     { return "provider_denied" }
func (MissingParams) Name() string      { return "missing_params" }
func (StateMissing) Name() string       { return "state_missing" }
func (StateMismatch) Name() string      { return "state_mismatch" }
func (HandshakeInFlight) Name() string  { return "handshake_in_flight" }
func (ExchangeRejected) Name() string   { return "exchange_rejected" }
func (ExchangeFailed) Name() string     { return "exchange_failed" }
func (MissingAccessToken) Name() string { return "missing_access_token" }
func (ProfileRejected) Name() string    { return "profile_rejected" }
func (ProfileFailed) Name() string      { return "profile_failed" }
func (StoreFailed) Name() string        { return "store_failed" }

func (Authenticated) outcome()      {}
func (ProviderDenied) outcome()     {}
func (MissingParams) outcome()      {}
func (StateMissing) outcome()       {}
func (StateMismatch) outcome()      {}
func (HandshakeInFlight) outcome()  {}
func (ExchangeRejected) outcome()   {}
func (ExchangeFailed) outcome()     {}
func (MissingAccessToken) outcome() {}
func (ProfileRejected) outcome()    {}
func (ProfileFailed) outcome()      {}
func (StoreFailed) outcome()        {}

// a provider 4xx is passed through; anything else is a bad gateway
func mirrorClientError(status int) int {
	if status >= 400 && status < 500 {
		return status
	}
	return http.StatusBadGateway
}
