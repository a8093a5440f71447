package config

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
)

const (
	sessionSecretVar  = "SESSION_SECRET"
	sessionTTLVar     = "SESSION_TTL"
	sessionStoreVar   = "SESSION_STORE"
	redisURLVar       = "REDIS_URL"
	cookieDomainVar   = "COOKIE_DOMAIN"
	rateLimitRPSVar   = "RATE_LIMIT_RPS"
	rateLimitBurstVar = "RATE_LIMIT_BURST"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"

	DefaultSessionTTL = 24 * time.Hour
)

type Security struct {
	// SessionSecret signs session cookies. Never log it.
	SessionSecret []byte
	// SessionSecretGenerated is true when no secret was configured and a
	// random one was created for this process
	SessionSecretGenerated bool

	SessionTTL     time.Duration
	SessionStore   string
	RedisURL       string
	CookieDomain   string
	RateLimitRPS   float64
	RateLimitBurst int
}

func loadSecurity() (Security, error) {
	ttl, err := getEnvDuration(sessionTTLVar, DefaultSessionTTL)
	if err != nil {
		return Security{}, err
	}
	rps, err := getEnvFloat(rateLimitRPSVar, 20)
	if err != nil {
		return Security{}, err
	}
	burst, err := getEnvInt(rateLimitBurstVar, 40)
	if err != nil {
		return Security{}, err
	}

	s := Security{
		SessionTTL:     ttl,
		SessionStore:   GetEnv(sessionStoreVar, SessionStoreMemory),
		RedisURL:       GetEnv(redisURLVar, ""),
		CookieDomain:   GetEnv(cookieDomainVar, ""),
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
	}

	if secret := GetEnv(sessionSecretVar, ""); secret != "" {
		s.SessionSecret = []byte(secret)
	} else {
		s.SessionSecret, err = GenerateRandomKey(32)
		if err != nil {
			return Security{}, fmt.Errorf("generate session secret: %w", err)
		}
		s.SessionSecretGenerated = true
	}
	return s, nil
}

func (s Security) Validate() error {
	switch s.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if s.RedisURL == "" {
			return fmt.Errorf("%w: %s", errors.ErrMissingConfig, redisURLVar)
		}
	default:
		return fmt.Errorf("%w: %s=%q, want %q or %q", errors.ErrInvalidConfig, sessionStoreVar, s.SessionStore, SessionStoreMemory, SessionStoreRedis)
	}
	if len(s.SessionSecret) == 0 {
		return fmt.Errorf("%w: %s", errors.ErrMissingConfig, sessionSecretVar)
	}
	if s.RateLimitRPS <= 0 || s.RateLimitBurst <= 0 {
		return fmt.Errorf("%w: rate limit must be positive", errors.ErrInvalidConfig)
	}
	return nil
}

// GenerateRandomKey returns n bytes from crypto/rand
func GenerateRandomKey(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
