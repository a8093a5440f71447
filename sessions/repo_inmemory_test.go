package sessions_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
	"github.com/jrsteele09/go-sqlite-browser/sessions"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStore(t *testing.T, ttl time.Duration) (*sessions.InMemoryStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := sessions.NewInMemoryStore(ttl, sessions.WithClock(clock.Now))
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryStoreCreateAndGet(t *testing.T) {
	store, clock := newStore(t, time.Hour)
	ctx := context.Background()

	id, created, err := store.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.False(t, created.Authenticated())
	require.Equal(t, clock.Now().Add(time.Hour), created.ExpiresAt)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, created, got)

	id2, _, err := store.Create(ctx)
	require.NoError(t, err)
	require.NotEqual(t, id, id2)
}

func TestInMemoryStoreGetUnknown(t *testing.T) {
	store, _ := newStore(t, time.Hour)

	_, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	_, err = store.Get(context.Background(), "")
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
}

func TestInMemoryStoreReturnsCopies(t *testing.T) {
	store, _ := newStore(t, time.Hour)
	ctx := context.Background()

	id, session, err := store.Create(ctx)
	require.NoError(t, err)

	session.AccessToken = "mutated outside the store"
	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Empty(t, got.AccessToken)

	got.OAuthState = "also mutated"
	again, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Empty(t, again.OAuthState)
}

func TestInMemoryStoreSaveAndClear(t *testing.T) {
	store, _ := newStore(t, time.Hour)
	ctx := context.Background()

	id, session, err := store.Create(ctx)
	require.NoError(t, err)

	session.AccessToken = "abc123"
	require.NoError(t, store.Save(ctx, id, session))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, got.Authenticated())

	require.NoError(t, store.Clear(ctx, id))
	_, err = store.Get(ctx, id)
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	// clearing twice is fine
	require.NoError(t, store.Clear(ctx, id))
}

func TestInMemoryStoreExpiry(t *testing.T) {
	store, clock := newStore(t, time.Minute)
	ctx := context.Background()

	id, _, err := store.Create(ctx)
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	_, err = store.Get(ctx, id)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = store.Get(ctx, id)
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	_, err = store.Update(ctx, id, func(*sessions.Session) error { return nil })
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	require.Equal(t, 1, store.Len())
	require.Equal(t, 1, store.DeleteExpired())
	require.Equal(t, 0, store.Len())
}

func TestInMemoryStoreUpdateFailureWritesNothing(t *testing.T) {
	store, _ := newStore(t, time.Hour)
	ctx := context.Background()

	id, _, err := store.Create(ctx)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = store.Update(ctx, id, func(s *sessions.Session) error {
		s.AccessToken = "should not persist"
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Empty(t, got.AccessToken)
}

func TestInMemoryStoreUpdateIsAtomic(t *testing.T) {
	store, _ := newStore(t, time.Hour)
	ctx := context.Background()

	id, session, err := store.Create(ctx)
	require.NoError(t, err)
	session.OAuthState = "state-1"
	require.NoError(t, store.Save(ctx, id, session))

	// every goroutine tries to claim the same state; exactly one may win
	const workers = 32
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	claimed := errors.New("already claimed")
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, id, func(s *sessions.Session) error {
				if s.ExchangeInFlight {
					return claimed
				}
				s.ExchangeInFlight = true
				return nil
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func TestInMemoryStorePurgeLoop(t *testing.T) {
	store := sessions.NewInMemoryStore(time.Millisecond, sessions.WithPurgeInterval(5*time.Millisecond))
	defer store.Close()

	_, _, err := store.Create(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}
