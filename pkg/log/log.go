package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the root logger. Until Init runs it discards everything,
// which keeps the persistence packages usable from tools and tests that
// never configure logging.
var Logger = zerolog.Nop()

// Config holds logging configuration.
type Config struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error").
	// Unknown names fall back to info.
	Level string

	// JSONOutput selects machine-readable output; the default is a
	// human-readable console format.
	JSONOutput bool

	// Output defaults to stdout.
	Output io.Writer
}

// Init builds the root logger. The server calls it before the snapshot
// load begins, so load progress is never lost.
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if !cfg.JSONOutput {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// WithComponent derives a child logger tagged with a subsystem name.
// The persistence core keeps one per subsystem: "load", "validate",
// "upgrade", "checkpoint", "exec", "intern", and "events".
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}
