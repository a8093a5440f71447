package sessions

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestCookieCodecRoundTrip(t *testing.T) {
	codec, err := NewCookieCodec([]byte("secret"), time.Hour, "")
	require.NoError(t, err)

	value, err := codec.Encode("session-1")
	require.NoError(t, err)
	require.NotContains(t, value, "secret")

	id, err := codec.Decode(value)
	require.NoError(t, err)
	require.Equal(t, "session-1", id)
}

func TestCookieCodecRejectsTampering(t *testing.T) {
	codec, err := NewCookieCodec([]byte("secret"), time.Hour, "")
	require.NoError(t, err)
	other, err := NewCookieCodec([]byte("another secret"), time.Hour, "")
	require.NoError(t, err)

	value, err := codec.Encode("session-1")
	require.NoError(t, err)

	parts := strings.Split(value, ".")
	require.Len(t, parts, 3)
	first := "A"
	if parts[2][0] == 'A' {
		first = "B"
	}
	flipped := first + parts[2][1:]

	cases := map[string]string{
		"garbage":         "not-a-token",
		"empty":           "",
		"bad signature":   parts[0] + "." + parts[1] + "." + flipped,
		"unsigned":        parts[0] + "." + parts[1] + ".",
		"foreign key":     mustEncode(t, other, "session-1"),
		"alg none header": "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." + parts[1] + ".",
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode(v)
			require.ErrorIs(t, err, errors.ErrInvalidSessionCookie)
		})
	}
}

func TestCookieCodecExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	codec, err := NewCookieCodec([]byte("secret"), time.Minute, "")
	require.NoError(t, err)
	codec.now = func() time.Time { return now }

	value, err := codec.Encode("session-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = codec.Decode(value)
	require.ErrorIs(t, err, errors.ErrInvalidSessionCookie)
}

func TestCookieCodecWriteAndRead(t *testing.T) {
	codec, err := NewCookieCodec([]byte("secret"), time.Hour, "browser.example")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, codec.Write(rec, "session-1", true))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	require.Equal(t, CookieName, c.Name)
	require.True(t, c.HttpOnly)
	require.True(t, c.Secure)
	require.Equal(t, http.SameSiteLaxMode, c.SameSite)
	require.Equal(t, "browser.example", c.Domain)
	require.Equal(t, 3600, c.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	id, err := codec.Read(req)
	require.NoError(t, err)
	require.Equal(t, "session-1", id)
}

func TestCookieCodecReadMissing(t *testing.T) {
	codec, err := NewCookieCodec([]byte("secret"), time.Hour, "")
	require.NoError(t, err)

	_, err = codec.Read(httptest.NewRequest(http.MethodGet, "/", nil))
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
}

func TestCookieCodecExpire(t *testing.T) {
	codec, err := NewCookieCodec([]byte("secret"), time.Hour, "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	codec.Expire(rec, false)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, CookieName, cookies[0].Name)
	require.Less(t, cookies[0].MaxAge, 0)
}

func TestNewCookieCodecRequiresSecret(t *testing.T) {
	_, err := NewCookieCodec(nil, time.Hour, "")
	require.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestNewIDEntropy(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := NewID()
		require.NoError(t, err)
		require.Len(t, id, 43) // 32 bytes, unpadded base64url
		require.False(t, seen[id])
		seen[id] = true
	}
}

func mustEncode(t *testing.T, c *CookieCodec, id string) string {
	t.Helper()
	v, err := c.Encode(id)
	require.NoError(t, err)
	return v
}
