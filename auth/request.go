package auth

import (
	"net/http"
	"net/url"
)

// CallbackPath is where the provider sends the browser back after consent
const CallbackPath = "/oauth/callback"

// LogoutPath ends the local session
const LogoutPath = "/oauth/logout"

// Scheme reports the scheme the browser used to reach us, honouring a TLS
// terminating proxy
func Scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme == "https" || scheme == "http" {
		return scheme
	}
	return "http"
}

// IsSecure reports whether cookies for r should carry the Secure attribute
func IsSecure(r *http.Request) bool {
	return Scheme(r) == "https"
}

// CallbackURL is the absolute redirect_uri for the request's origin
func CallbackURL(r *http.Request) string {
	u := url.URL{Scheme: Scheme(r), Host: r.Host, Path: CallbackPath}
	return u.String()
}

// redirect sends a bare 302 with no body
func redirect(w http.ResponseWriter, location string) {
	w.Header().Set("Location", location)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusFound)
}
