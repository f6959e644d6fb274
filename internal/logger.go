package internal

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a JSON logger in prod and a console logger otherwise.
// An unknown level falls back to info.
func NewLogger(w io.Writer, env string, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	validLevel := err == nil && level != "" && lvl >= zerolog.DebugLevel && lvl <= zerolog.ErrorLevel
	if !validLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = w
	if env != "prod" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "paysync").
		Logger()

	if !validLevel {
		logger.Warn().Str("value", level).Msg("Invalid log level. Using default level: info")
	}

	return logger
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
