package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-sqlite-browser/auth"
	"github.com/jrsteele09/go-sqlite-browser/internal/config"
	"github.com/jrsteele09/go-sqlite-browser/sessions"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "browser-client"
	testClientSecret = "s3cr3t"
	testAccessToken  = "tok-123"
	testOrigin       = "http://browser.test"
)

// fakeProvider is an identity provider whose answers each test can script
type fakeProvider struct {
	server *httptest.Server

	mu            sync.Mutex
	tokenStatus   int
	tokenBody     string
	tokenDelay    time.Duration
	tokenGate     chan struct{}
	profileStatus int
	profileDelay  time.Duration

	tokenCalls   atomic.Int32
	profileCalls atomic.Int32

	lastForm      url.Values
	lastBasicUser string
	lastBasicPass string
	lastBearer    string
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{
		tokenStatus:   http.StatusOK,
		tokenBody:     `{"access_token":"` + testAccessToken + `","token_type":"Bearer","expires_in":3600}`,
		profileStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", p.handleToken)
	mux.HandleFunc("/userinfo", p.handleProfile)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) handleToken(w http.ResponseWriter, r *http.Request) {
	p.tokenCalls.Add(1)
	_ = r.ParseForm()
	user, pass, _ := r.BasicAuth()

	p.mu.Lock()
	p.lastForm = r.PostForm
	p.lastBasicUser, p.lastBasicPass = user, pass
	status, body, delay, gate := p.tokenStatus, p.tokenBody, p.tokenDelay, p.tokenGate
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if !sleep(r.Context(), delay) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (p *fakeProvider) handleProfile(w http.ResponseWriter, r *http.Request) {
	p.profileCalls.Add(1)

	p.mu.Lock()
	p.lastBearer = r.Header.Get("Authorization")
	status, delay := p.profileStatus, p.profileDelay
	p.mu.Unlock()

	if !sleep(r.Context(), delay) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status == http.StatusOK {
		_ = json.NewEncoder(w).Encode(map[string]string{"sub": "user-1"})
		return
	}
	_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
}

func (p *fakeProvider) set(fn func(p *fakeProvider)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

type harness struct {
	provider *fakeProvider
	store    *sessions.InMemoryStore
	gate     *auth.Gate
	app      http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithTimeout(t, 2*time.Second)
}

func newHarnessWithTimeout(t *testing.T, timeout time.Duration) *harness {
	t.Helper()
	fp := newFakeProvider(t)

	provider, err := auth.NewProvider(context.Background(), providerConfig(fp.server.URL, timeout))
	require.NoError(t, err)

	store := sessions.NewInMemoryStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	cookies, err := sessions.NewCookieCodec([]byte("test-secret"), time.Hour, "")
	require.NoError(t, err)

	gate := auth.NewGate(provider, store, cookies, "/")

	protected := func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.AccessToken(r.Context())
		if !ok || !auth.IsAuthenticated(r.Context()) {
			http.Error(w, "gate let an anonymous request through", http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte("hello " + token))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", gate.RequireSession()(protected))
	mux.HandleFunc("GET "+auth.CallbackPath, gate.OAuthCallbackHandler())
	mux.HandleFunc(auth.LogoutPath, gate.LogoutHandler())

	return &harness{provider: fp, store: store, gate: gate, app: mux}
}

func providerConfig(baseURL string, timeout time.Duration) config.OAuth {
	return config.OAuth{
		ClientID:        testClientID,
		ClientSecret:    testClientSecret,
		AuthorizeURL:    "https://idp.test/authorize",
		TokenURL:        baseURL + "/token",
		ProfileURL:      baseURL + "/userinfo",
		PostLoginURL:    "/",
		Scope:           "openid profile",
		ProviderTimeout: timeout,
	}
}

func (h *harness) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.app.ServeHTTP(rec, req)
	return rec
}

// begin hits a protected page without a session and returns the issued
// cookie together with the state the gate sent to the provider
func (h *harness) begin(t *testing.T) (*http.Cookie, string) {
	t.Helper()
	rec := h.do(httptest.NewRequest(http.MethodGet, testOrigin+"/", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	cookie := sessionCookie(t, rec)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	return cookie, state
}

func (h *harness) callback(query string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return h.do(httptest.NewRequest(http.MethodGet, testOrigin+auth.CallbackPath+"?"+query, nil), cookies...)
}

// login runs the full flow and returns an authenticated cookie
func (h *harness) login(t *testing.T) *http.Cookie {
	t.Helper()
	cookie, state := h.begin(t)
	rec := h.callback("code=abc&state="+url.QueryEscape(state), cookie)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	return cookie
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessions.CookieName {
			return c
		}
	}
	require.FailNow(t, "no session cookie issued")
	return nil
}
