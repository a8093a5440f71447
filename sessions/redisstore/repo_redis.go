// Package redisstore is a Redis-backed sessions.Store for deployments that run
// more than one instance or need sessions to outlive a restart.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
	"github.com/jrsteele09/go-sqlite-browser/sessions"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "sqlb:session:"

	// maxUpdateAttempts bounds optimistic retries when a WATCHed key changes
	maxUpdateAttempts = 8
)

// Store keeps each session as a JSON value whose Redis TTL tracks ExpiresAt
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

var _ sessions.Store = (*Store)(nil)

// New constructs a Redis-backed session store. The client lifecycle is owned
// by the caller.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Connect parses url, pings the server and returns a ready client
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func key(id string) string {
	return keyPrefix + id
}

func (s *Store) Get(ctx context.Context, id string) (*sessions.Session, error) {
	if id == "" {
		return nil, errors.ErrSessionNotFound
	}
	return s.get(ctx, s.client, id)
}

func (s *Store) Create(ctx context.Context) (string, *sessions.Session, error) {
	id, err := sessions.NewID()
	if err != nil {
		return "", nil, err
	}
	session := sessions.New(s.now(), s.ttl)

	data, err := json.Marshal(session)
	if err != nil {
		return "", nil, fmt.Errorf("marshal session: %w", err)
	}
	ok, err := s.client.SetNX(ctx, key(id), data, s.ttl).Result()
	if err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}
	if !ok {
		// 256 bits of randomness colliding means the random source is broken
		return "", nil, fmt.Errorf("create session: %w", errors.ErrSessionConflict)
	}
	return id, session, nil
}

func (s *Store) Save(ctx context.Context, id string, session *sessions.Session) error {
	if id == "" {
		return fmt.Errorf("sessionID is required")
	}
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, key(id), data, s.remaining(session)).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Update runs fn inside a WATCH/MULTI transaction and retries when another
// writer touched the key in between
func (s *Store) Update(ctx context.Context, id string, fn func(*sessions.Session) error) (*sessions.Session, error) {
	if id == "" {
		return nil, errors.ErrSessionNotFound
	}

	var updated *sessions.Session
	txf := func(tx *redis.Tx) error {
		session, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(session); err != nil {
			return err
		}
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(id), data, s.remaining(session))
			return nil
		})
		if err == nil {
			updated = session
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key(id))
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("update session: %w", errors.ErrSessionConflict)
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) get(ctx context.Context, c getter, id string) (*sessions.Session, error) {
	data, err := c.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var session sessions.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if session.Expired(s.now()) {
		return nil, errors.ErrSessionNotFound
	}
	return &session, nil
}

func (s *Store) remaining(session *sessions.Session) time.Duration {
	if session.ExpiresAt.IsZero() {
		return s.ttl
	}
	if d := session.ExpiresAt.Sub(s.now()); d > time.Second {
		return d
	}
	return time.Second
}
