package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
	"github.com/jrsteele09/go-sqlite-browser/internal/metrics"
)

// InMemoryStore is a thread-safe, process-local implementation of Store.
// Sessions do not survive a restart.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time

	purgeInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// InMemoryOption configures an InMemoryStore
type InMemoryOption func(*InMemoryStore)

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemoryStore) {
		s.now = now
	}
}

// WithPurgeInterval starts a janitor that removes expired sessions every
// interval until Close is called
func WithPurgeInterval(interval time.Duration) InMemoryOption {
	return func(s *InMemoryStore) {
		s.purgeInterval = interval
	}
}

// NewInMemoryStore creates a new in-memory session store
func NewInMemoryStore(ttl time.Duration, opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.purgeInterval > 0 {
		go s.purgeLoop(s.purgeInterval)
	}
	return s
}

var _ Store = (*InMemoryStore)(nil)

func (s *InMemoryStore) Get(_ context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, errors.ErrSessionNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok || session.Expired(s.now()) {
		return nil, errors.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *InMemoryStore) Create(_ context.Context) (string, *Session, error) {
	id, err := NewID()
	if err != nil {
		return "", nil, err
	}
	session := New(s.now(), s.ttl)

	s.mu.Lock()
	s.sessions[id] = session.Clone()
	active := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(active))
	return id, session, nil
}

func (s *InMemoryStore) Save(_ context.Context, id string, session *Session) error {
	if id == "" {
		return fmt.Errorf("sessionID is required")
	}
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = session.Clone()
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	active := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(active))
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, id string, fn func(*Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[id]
	if !ok || stored.Expired(s.now()) {
		return nil, errors.ErrSessionNotFound
	}

	// fn works on a copy so a failed update leaves the stored session untouched
	working := stored.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.sessions[id] = working
	return working.Clone(), nil
}

// DeleteExpired removes every session that has expired and returns how many
// were removed
func (s *InMemoryStore) DeleteExpired() int {
	now := s.now()

	s.mu.Lock()
	removed := 0
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	active := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(active))
	return removed
}

// Len returns the number of stored sessions, expired ones included
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *InMemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *InMemoryStore) purgeLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.DeleteExpired()
		case <-s.stop:
			return
		}
	}
}
