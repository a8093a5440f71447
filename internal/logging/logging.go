// Package logging configures the process-wide zerolog logger
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jrsteele09/go-sqlite-browser/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup points the global logger at out. DEV gets the human readable console
// writer, every other environment gets JSON lines.
func Setup(out io.Writer, env, level string) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("%w: LOG_LEVEL=%q", errors.ErrInvalidConfig, level)
		}
		lvl = parsed
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if strings.EqualFold(env, "DEV") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger
	return nil
}
