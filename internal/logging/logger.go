// Package logging builds the slog loggers shared by every coach process.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures a logger. The zero value logs info and above as text on stderr.
type Options struct {
	Level  slog.Level
	Format string
	Writer io.Writer
}

// New creates the application logger at the given level.
// Logs go to stderr so stdout stays free for the chat transcript and JSON-RPC.
func New(level slog.Level) *slog.Logger {
	return NewWithOptions(Options{Level: level})
}

// NewWithOptions creates a logger with an explicit format and destination.
// Unknown formats fall back to text.
func NewWithOptions(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: renameErrorKey,
	}
	if strings.EqualFold(opts.Format, FormatJSON) {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// ValidFormat reports an error for anything but text or json.
func ValidFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid log format %q (expected %s or %s)", format, FormatText, FormatJSON)
	}
}

// renameErrorKey shortens "error" to "err" at the top level.
func renameErrorKey(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == "error" {
		a.Key = "err"
	}
	return a
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
