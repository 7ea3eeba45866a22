package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/isseis/go-safe-replace/internal/safefileio"
	"github.com/isseis/go-safe-replace/internal/terminal"
	"github.com/oklog/ulid/v2"
)

// ErrInvalidLogLevel is returned by ParseLevel for unknown level names.
var ErrInvalidLogLevel = errors.New("invalid log level - valid options are: debug, info, warn, error")

// Options configures Setup.
type Options struct {
	// Level is the minimum level written to Stderr
	Level slog.Level
	// Stderr receives human-readable records
	Stderr io.Writer
	// Capabilities selects the compact interactive format when stderr is a
	// terminal; nil always selects the slog text format
	Capabilities terminal.Capabilities
	// LogFile, when set, additionally receives JSON records at debug level
	LogFile string
	// RunID is attached to every record; NewRunID is used when empty
	RunID string
}

// Logger bundles the configured logger with the resources it holds.
type Logger struct {
	*slog.Logger
	RunID string
	file  io.Closer
}

// Close releases the log file, if one was opened.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// NewRunID returns a lexically sortable unique identifier for one run.
func NewRunID() string {
	return ulid.Make().String()
}

// ParseLevel converts a level name to slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, name)
	}
}

// Setup builds the logger described by opts. The caller installs it with
// slog.SetDefault and must Close it.
func Setup(opts Options) (*Logger, error) {
	runID := opts.RunID
	if runID == "" {
		runID = NewRunID()
	}

	var handlers []slog.Handler
	if opts.Stderr != nil {
		handler, err := consoleHandler(opts)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, handler)
	}

	var file io.Closer
	if opts.LogFile != "" {
		f, err := safefileio.OpenAppend(opts.LogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", opts.LogFile, err)
		}
		file = f
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	logger := slog.New(NewMultiHandler(handlers...)).With(slog.String("run_id", runID))
	return &Logger{Logger: logger, RunID: runID, file: file}, nil
}

func consoleHandler(opts Options) (slog.Handler, error) {
	if opts.Capabilities == nil || !opts.Capabilities.IsInteractive() {
		return slog.NewTextHandler(opts.Stderr, &slog.HandlerOptions{Level: opts.Level}), nil
	}
	return NewInteractiveHandler(InteractiveHandlerOptions{
		Level:        opts.Level,
		Writer:       opts.Stderr,
		Capabilities: opts.Capabilities,
	})
}
