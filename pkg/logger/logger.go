// Package logger holds the process-wide zerolog logger.
//
// Call Init once from main, then Get or Component anywhere else.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the logger is built.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Unknown values mean info.
	Level string
	// Pretty switches to the coloured console writer. Production emits JSON.
	Pretty bool
	// Service is stamped on every event when set.
	Service string
	// Output defaults to os.Stdout.
	Output io.Writer
}

var (
	mu       sync.RWMutex
	instance *zerolog.Logger
)

// Init builds the logger. Only the first call has an effect until Reset.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return *instance
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	lvl := parseLevel(opts.Level)
	zerolog.SetGlobalLevel(lvl)

	ctx := zerolog.New(out).Level(lvl).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	l := ctx.Logger()
	instance = &l
	return l
}

// Get returns the logger. It panics if Init has not run.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		panic("logger: Get() called before Init()")
	}
	return *instance
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset drops the logger so the next Init rebuilds it. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
