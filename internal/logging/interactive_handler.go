package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/isseis/go-safe-replace/internal/terminal"
)

// Static errors for InteractiveHandler validation
var (
	ErrInteractiveHandlerWriterRequired       = errors.New("InteractiveHandler: Writer is required")
	ErrInteractiveHandlerCapabilitiesRequired = errors.New("InteractiveHandler: Capabilities is required")
)

// hiddenAttrs are dropped from interactive output; the log file keeps them.
var hiddenAttrs = map[string]bool{
	"run_id": true,
}

// InteractiveHandler writes compact one-line records for a human watching a
// terminal: a level tag, the message, then key=value pairs.
type InteractiveHandler struct {
	mu       *sync.Mutex
	writer   io.Writer
	level    slog.Level
	useColor bool
	attrs    []slog.Attr
	groups   []string
}

// InteractiveHandlerOptions configures the InteractiveHandler.
type InteractiveHandlerOptions struct {
	// Level is the minimum log level to handle
	Level slog.Level
	// Writer is the output destination, typically os.Stderr
	Writer io.Writer
	// Capabilities decides whether level tags are colored
	Capabilities terminal.Capabilities
}

// NewInteractiveHandler creates a new InteractiveHandler with the given options.
func NewInteractiveHandler(opts InteractiveHandlerOptions) (*InteractiveHandler, error) {
	if opts.Writer == nil {
		return nil, ErrInteractiveHandlerWriterRequired
	}
	if opts.Capabilities == nil {
		return nil, ErrInteractiveHandlerCapabilitiesRequired
	}

	return &InteractiveHandler{
		mu:       &sync.Mutex{},
		writer:   opts.Writer,
		level:    opts.Level,
		useColor: opts.Capabilities.SupportsColor(),
	}, nil
}

// Enabled reports whether the handler handles records at the given level.
func (h *InteractiveHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and writes a single record.
func (h *InteractiveHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(h.levelTag(r.Level))
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	for _, attr := range h.attrs {
		appendAttr(&sb, "", attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		appendAttr(&sb, prefix, attr)
		return true
	})
	sb.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, sb.String())
	return err
}

// WithAttrs returns a new handler with additional attributes.
func (h *InteractiveHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, attr := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: prefix + attr.Key, Value: attr.Value})
	}
	return &next
}

// WithGroup returns a new handler with an additional group.
func (h *InteractiveHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func (h *InteractiveHandler) levelTag(level slog.Level) string {
	var tag string
	var c *color.Color
	switch {
	case level >= slog.LevelError:
		tag, c = "ERROR", color.New(color.FgRed, color.Bold)
	case level >= slog.LevelWarn:
		tag, c = "WARN ", color.New(color.FgYellow)
	case level >= slog.LevelInfo:
		tag, c = "INFO ", color.New(color.FgGreen)
	default:
		tag, c = "DEBUG", color.New(color.FgHiBlack)
	}

	if !h.useColor {
		return "[" + tag + "]"
	}
	c.EnableColor()
	return c.Sprint("[" + tag + "]")
}

func appendAttr(sb *strings.Builder, prefix string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) || hiddenAttrs[attr.Key] {
		return
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		for _, child := range value.Group() {
			appendAttr(sb, prefix+attr.Key+".", child)
		}
		return
	}

	text := value.String()
	if strings.ContainsAny(text, " \t\"=") {
		text = fmt.Sprintf("%q", text)
	}
	sb.WriteString(" ")
	sb.WriteString(prefix)
	sb.WriteString(attr.Key)
	sb.WriteString("=")
	sb.WriteString(text)
}
