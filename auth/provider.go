package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-sqlite-browser/internal/config"
	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
	"github.com/jrsteele09/go-sqlite-browser/internal/metrics"
	"golang.org/x/oauth2"
)

// maxProviderBody caps how much of a provider error body is surfaced
const maxProviderBody = 4096

// ErrMissingAccessToken is returned when the token endpoint answers with a
// success status but no access token
var ErrMissingAccessToken = errors.New("token response missing access_token")

// ProviderError is a non-success HTTP answer from the identity provider
type ProviderError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: provider returned %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Provider talks to the identity provider's authorization, token and profile
// endpoints. It is immutable after construction.
type Provider struct {
	oauth2Config oauth2.Config
	profileURL   string
	httpClient   *http.Client
	timeout      time.Duration
}

// NewProvider builds the provider client from explicit endpoints; no
// discovery document is fetched
func NewProvider(ctx context.Context, cfg config.OAuth) (*Provider, error) {
	for name, raw := range map[string]string{
		"authorization": cfg.AuthorizeURL,
		"token":         cfg.TokenURL,
		"profile":       cfg.ProfileURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return nil, fmt.Errorf("%w: %s endpoint %q is not an absolute URL", errors.ErrInvalidConfig, name, raw)
		}
	}

	endpoints := (&oidc.ProviderConfig{
		AuthURL:     cfg.AuthorizeURL,
		TokenURL:    cfg.TokenURL,
		UserInfoURL: cfg.ProfileURL,
	}).NewProvider(ctx)

	endpoint := endpoints.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInHeader

	return &Provider{
		oauth2Config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       cfg.Scopes(),
		},
		profileURL: endpoints.UserInfoEndpoint(),
		httpClient: &http.Client{Timeout: cfg.ProviderTimeout},
		timeout:    cfg.ProviderTimeout,
	}, nil
}

func (p *Provider) configFor(redirectURI string) *oauth2.Config {
	c := p.oauth2Config
	c.RedirectURL = redirectURI
	return &c
}

// AuthCodeURL builds the authorization endpoint URL carrying client_id,
// response_type=code, scope, redirect_uri and state
func (p *Provider) AuthCodeURL(state, redirectURI string) string {
	return p.configFor(redirectURI).AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token using a
// basic-auth, form-encoded POST to the token endpoint
func (p *Provider) Exchange(ctx context.Context, code, redirectURI string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	start := time.Now()
	token, err := p.configFor(redirectURI).Exchange(ctx, code)
	if err != nil {
		metrics.RecordProviderRequest("token_exchange", "failure", time.Since(start).Seconds())

		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil {
			return "", &ProviderError{
				Operation:  "token exchange",
				StatusCode: rErr.Response.StatusCode,
				Body:       truncate(string(rErr.Body)),
			}
		}
		if ctx.Err() == nil && isMissingAccessToken(err) {
			return "", ErrMissingAccessToken
		}
		return "", fmt.Errorf("token exchange: %w", err)
	}
	metrics.RecordProviderRequest("token_exchange", "success", time.Since(start).Seconds())

	if token.AccessToken == "" {
		return "", ErrMissingAccessToken
	}
	return token.AccessToken, nil
}

// FetchProfile performs a bearer-authenticated GET on the profile endpoint to
// prove the token is live. The profile body itself is discarded.
func (p *Provider) FetchProfile(ctx context.Context, accessToken string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	client.Timeout = p.timeout

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		metrics.RecordProviderRequest("profile", "failure", time.Since(start).Seconds())
		return fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordProviderRequest("profile", "failure", time.Since(start).Seconds())
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
		return &ProviderError{
			Operation:  "profile fetch",
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxProviderBody))
	metrics.RecordProviderRequest("profile", "success", time.Since(start).Seconds())
	return nil
}

func truncate(s string) string {
	if len(s) > maxProviderBody {
		return s[:maxProviderBody]
	}
	return s
}

// x/oauth2 reports a 2xx response without a token as a plain error
func isMissingAccessToken(err error) bool {
	var uErr *url.Error
	if errors.As(err, &uErr) {
		return false
	}
	return strings.Contains(err.Error(), "missing access_token")
}
