package config

import (
	"fmt"

	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
)

// Config is the process-wide configuration. It is loaded once at startup and
// passed by value; nothing reads the environment after Load returns.
type Config struct {
	EnvVars
	OAuth    OAuth
	Security Security
	Cors     Cors
}

// Load reads the configuration from the environment and validates it.
// Any error returned here must abort startup.
func Load() (Config, error) {
	envVars, err := loadEnvVars()
	if err != nil {
		return Config{}, err
	}
	oauth, err := loadOAuth()
	if err != nil {
		return Config{}, err
	}
	security, err := loadSecurity()
	if err != nil {
		return Config{}, err
	}

	c := Config{
		EnvVars:  envVars,
		OAuth:    oauth,
		Security: security,
		Cors:     loadCors(),
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the cross-field invariants of the configuration
func (c Config) Validate() error {
	if err := c.OAuth.Validate(); err != nil {
		return err
	}
	if err := c.Security.Validate(); err != nil {
		return err
	}
	if c.DataFolder == "" {
		return fmt.Errorf("%w: %s must not be empty", errors.ErrInvalidConfig, folderEnvVar)
	}
	return nil
}

// WithDataFolder returns a copy of the configuration rooted at folder
func (c Config) WithDataFolder(folder string) Config {
	if folder != "" {
		c.DataFolder = folder
	}
	return c
}
