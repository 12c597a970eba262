package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/pkg/domain"
)

// Hint is shown when the input does not match any displayed option.
const Hint = "Please choose one of the options above (number or text), or type \"quit\" to leave."

var quitWords = map[string]bool{
	"quit": true,
	"exit": true,
	"bye":  true,
	"/q":   true,
}

// Runner drives a Conversation using an IOHandler.
type Runner struct {
	// Handler is the strategy for IO. If nil, one is built from Input/Output.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	Input        io.Reader
	Output       io.Writer
	Headless     bool
	Renderer     ContentRenderer
	MaxInputSize int
}

// NewRunner creates a Runner reading Stdin and writing Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:        os.Stdin,
		Output:       os.Stdout,
		MaxInputSize: DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run opens the conversation and processes choices until the user quits,
// the input ends or ctx is cancelled. The conversation is closed on return,
// and so is the handler when Run built it. Handlers set through
// WithInputHandler belong to the caller.
// A clean exit (quit word or EOF) returns nil.
func (r *Runner) Run(ctx context.Context, conv Conversation) error {
	handler := r.resolveHandler()
	if r.Handler == nil {
		if c, ok := handler.(io.Closer); ok {
			defer c.Close()
		}
	}

	transcript := conv.Open()
	defer conv.Close()

	if err := handler.Output(ctx, transcript); err != nil {
		return err
	}

	for {
		raw, err := handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.Logger.Debug("input closed, ending conversation")
				return nil
			}
			return err
		}

		text, err := SanitizeInput(raw, r.MaxInputSize)
		if err != nil {
			r.Logger.Debug("rejected input", "error", err)
			if err := handler.SystemOutput(ctx, fmt.Sprintf("Error: %v. Please try again.", err)); err != nil {
				return err
			}
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if IsQuit(text) {
			r.Logger.Debug("user quit")
			return handler.SystemOutput(ctx, "Goodbye!")
		}

		ref, err := ParseRef(text)
		if err != nil {
			if err := handler.SystemOutput(ctx, Hint); err != nil {
				return err
			}
			continue
		}

		next, err := conv.Select(ref)
		if errors.Is(err, domain.ErrUnknownOption) {
			r.Logger.Debug("unknown option", "ref", ref.String())
			if err := handler.SystemOutput(ctx, Hint); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		if len(next) >= len(transcript) {
			if err := handler.Output(ctx, next[len(transcript):]); err != nil {
				return err
			}
		}
		transcript = next
	}
}

func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	if r.Headless {
		return NewJSONHandler(r.Input, r.Output)
	}
	return NewTextHandler(r.Input, r.Output, WithTextHandlerRenderer(r.Renderer))
}

// IsQuit reports whether text asks to leave the conversation.
func IsQuit(text string) bool {
	return quitWords[strings.ToLower(strings.TrimSpace(text))]
}

// ParseRef turns one line of user input into an option reference.
// A number selects by position, a JSON object is decoded as-is,
// anything else is matched against the option labels.
func ParseRef(text string) (domain.OptionRef, error) {
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(text); err == nil {
		if n < 1 {
			return domain.OptionRef{}, fmt.Errorf("%w: option numbers start at 1", domain.ErrUnknownOption)
		}
		return domain.OptionRef{Index: n}, nil
	}

	if strings.HasPrefix(text, "{") {
		var ref domain.OptionRef
		if err := json.Unmarshal([]byte(text), &ref); err != nil {
			return domain.OptionRef{}, fmt.Errorf("invalid choice object: %w", err)
		}
		if ref.IsZero() {
			return domain.OptionRef{}, fmt.Errorf("%w: empty choice", domain.ErrUnknownOption)
		}
		return ref, nil
	}

	return domain.OptionRef{Text: text}, nil
}
