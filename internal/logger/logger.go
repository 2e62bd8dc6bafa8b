// Package logger builds the zerolog.Logger used across recomlite,
// mirroring the teacher gateway's console-in-dev / JSON-in-prod setup.
package logger

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/recomlite/recomlite-server/internal/config"
)

// New returns a configured zerolog.Logger.
func New(cfg *config.Config) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if cfg.Env == "development" {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if cfg.Env == "development" {
		out := zerolog.ConsoleWriter{Out: os.Stderr}
		return zerolog.New(out).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
