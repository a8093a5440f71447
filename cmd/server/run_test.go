package main

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-sqlite-browser/internal/config"
	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
	"github.com/jrsteele09/go-sqlite-browser/sessions"
	"github.com/stretchr/testify/require"
)

func TestRunFailsFastWithoutProviderSettings(t *testing.T) {
	for _, name := range []string{
		"OAUTH_CLIENT_ID", "OAUTH_CLIENT_SECRET", "OAUTH_AUTHORIZE_URL",
		"OAUTH_TOKEN_URL", "OAUTH_PROFILE_URL",
	} {
		t.Setenv(name, "")
	}

	err := run(context.Background(), t.TempDir())
	require.ErrorIs(t, err, errors.ErrMissingConfig)
	require.Contains(t, err.Error(), "OAUTH_CLIENT_ID")
}

func TestRunRejectsMissingRoot(t *testing.T) {
	t.Setenv("OAUTH_CLIENT_ID", "id")
	t.Setenv("OAUTH_CLIENT_SECRET", "secret")
	t.Setenv("OAUTH_AUTHORIZE_URL", "https://idp.test/authorize")
	t.Setenv("OAUTH_TOKEN_URL", "https://idp.test/token")
	t.Setenv("OAUTH_PROFILE_URL", "https://idp.test/userinfo")
	t.Setenv("ENV", "TEST")

	err := run(context.Background(), t.TempDir()+"/missing")
	require.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestNewSessionStoreMemory(t *testing.T) {
	store, closeStore, err := newSessionStore(context.Background(), config.Security{
		SessionStore: config.SessionStoreMemory,
		SessionTTL:   time.Hour,
	})
	require.NoError(t, err)
	defer closeStore()
	require.IsType(t, &sessions.InMemoryStore{}, store)
}

func TestNewSessionStoreRedisBadURL(t *testing.T) {
	_, _, err := newSessionStore(context.Background(), config.Security{
		SessionStore: config.SessionStoreRedis,
		RedisURL:     "not a redis url",
		SessionTTL:   time.Hour,
	})
	require.Error(t, err)
}
