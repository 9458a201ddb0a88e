// Package logger builds the service-wide zerolog logger. Every line
// carries the service tag so aggregated logs from the scan workers and
// the HTTP layer stay attributable.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// serviceName tags every log line.
const serviceName = "fe-analyst"

// Config holds logger configuration
type Config struct {
	Level  string // zerolog level name; unknown values fall back to info
	Pretty bool   // human-readable console output for dev mode
}

// New creates the root logger. Component loggers derive from it via
// log.With().Str("component", ...).
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.DurationFieldUnit = time.Millisecond

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	ctx := zerolog.New(output).
		With().
		Timestamp().
		Str("service", serviceName)

	// Call sites only matter when debugging; skip the runtime cost
	// otherwise.
	if level <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}

	return ctx.Logger()
}

// SetGlobalLogger sets the package-level logger
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}
