// Package logger implements utility routines to initialize the logging facility used by fsm-policy components.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	// componentKey is the field under which the component name of a logger is recorded
	componentKey = "component"
)

var (
	root zerolog.Logger
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	root = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// New creates a new zerolog.Logger tagged with the given component name
func New(component string) zerolog.Logger {
	return root.With().Str(componentKey, component).Caller().Logger()
}

// NewPretty creates a new zerolog.Logger with a human readable console writer, used by CLI tooling and tests
func NewPretty(component string) zerolog.Logger {
	return NewWithWriter(component, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// NewWithWriter creates a new zerolog.Logger writing to w
func NewWithWriter(component string, w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str(componentKey, component).Logger()
}

// SetLogLevel sets the global logging level
func SetLogLevel(verbosity string) error {
	switch verbosity {
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	default:
		return fmt.Errorf("invalid log level: %s", verbosity)
	}

	return nil
}
