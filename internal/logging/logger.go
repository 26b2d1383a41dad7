package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog.Logger with nglsend-specific configuration
type Logger struct {
	*zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level  string
	Format string // "json" or "console"
}

// New creates a new configured logger
func New(cfg Config) *Logger {
	// Parse log level
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	// Diagnostics go to stderr so they never interleave with the
	// progress output on stdout.
	var output io.Writer = os.Stderr
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(output).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: &logger}
}

// Default returns a logger with default configuration
func Default() *Logger {
	return New(Config{
		Level:  "info",
		Format: "console",
	})
}

// WithComponent returns a new logger with a component field
func (l *Logger) WithComponent(component string) *Logger {
	logger := l.Logger.With().Str("component", component).Logger()
	return &Logger{Logger: &logger}
}

// WithTarget returns a new logger with the target handle attached
func (l *Logger) WithTarget(username string) *Logger {
	logger := l.Logger.With().Str("target", username).Logger()
	return &Logger{Logger: &logger}
}

// Init initializes the global logger
func Init(cfg Config) {
	logger := New(cfg)
	log.Logger = *logger.Logger
}
