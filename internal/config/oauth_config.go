package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
)

const (
	clientIDVar        = "OAUTH_CLIENT_ID"
	clientSecretVar    = "OAUTH_CLIENT_SECRET"
	authorizeURLVar    = "OAUTH_AUTHORIZE_URL"
	tokenURLVar        = "OAUTH_TOKEN_URL"
	profileURLVar      = "OAUTH_PROFILE_URL"
	postLoginURLVar    = "OAUTH_POST_LOGIN_URL"
	scopeVar           = "OAUTH_SCOPE"
	providerTimeoutVar = "PROVIDER_TIMEOUT"

	DefaultScope           = "openid profile"
	DefaultPostLoginURL    = "/"
	DefaultProviderTimeout = 5 * time.Second
)

// OAuth is the identity provider client configuration
type OAuth struct {
	ClientID     string
	ClientSecret string
	AuthorizeURL string
	TokenURL     string
	ProfileURL   string
	PostLoginURL string
	Scope        string

	// ProviderTimeout bounds every call to the token and profile endpoints
	ProviderTimeout time.Duration
}

func loadOAuth() (OAuth, error) {
	timeout, err := getEnvDuration(providerTimeoutVar, DefaultProviderTimeout)
	if err != nil {
		return OAuth{}, err
	}
	return OAuth{
		ClientID:        GetEnv(clientIDVar, ""),
		ClientSecret:    GetEnv(clientSecretVar, ""),
		AuthorizeURL:    GetEnv(authorizeURLVar, ""),
		TokenURL:        GetEnv(tokenURLVar, ""),
		ProfileURL:      GetEnv(profileURLVar, ""),
		PostLoginURL:    GetEnv(postLoginURLVar, DefaultPostLoginURL),
		Scope:           GetEnv(scopeVar, DefaultScope),
		ProviderTimeout: timeout,
	}, nil
}

// Scopes splits the configured scope string on whitespace
func (o OAuth) Scopes() []string {
	return strings.Fields(o.Scope)
}

// Validate reports every required setting that is empty
func (o OAuth) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{clientIDVar, o.ClientID},
		{clientSecretVar, o.ClientSecret},
		{authorizeURLVar, o.AuthorizeURL},
		{tokenURLVar, o.TokenURL},
		{profileURLVar, o.ProfileURL},
		{postLoginURLVar, o.PostLoginURL},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", errors.ErrMissingConfig, strings.Join(missing, ", "))
	}
	if o.ProviderTimeout <= 0 {
		return fmt.Errorf("%w: %s must be positive", errors.ErrInvalidConfig, providerTimeoutVar)
	}
	return nil
}
