package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/coach/pkg/domain"
)

// TextHandler implements the numbered-menu terminal interface.
//
// Input reads through a background goroutine so it can return on ctx
// cancellation. Call Close when done with the handler: the goroutine exits
// once its pending line is discarded. A read already blocked on the
// underlying reader cannot be interrupted and ends only when that read
// returns.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	inputChan chan inputResult
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		if h.done == nil {
			h.done = make(chan struct{})
		}
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honour ctx cancellation.
func (h *TextHandler) pump() {
	defer close(h.inputChan)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" && !h.send(inputResult{text: text}) {
			return
		}
		if err != nil {
			if err == io.EOF {
				return
			}
			if !h.send(inputResult{err: err}) {
				return
			}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			select {
			case <-time.After(50 * time.Millisecond):
			case <-h.done:
				return
			}
		}
	}
}

func (h *TextHandler) send(res inputResult) bool {
	select {
	case h.inputChan <- res:
		return true
	case <-h.done:
		return false
	}
}

// Close stops the input goroutine. Input returns io.EOF afterwards.
func (h *TextHandler) Close() error {
	h.closeOnce.Do(func() {
		if h.done == nil {
			h.done = make(chan struct{})
		}
		close(h.done)
	})
	return nil
}

// Output prints bot entries with their numbered options. User entries are
// skipped since the user just typed them.
func (h *TextHandler) Output(ctx context.Context, entries []domain.Entry) error {
	for _, e := range entries {
		if e.Speaker != domain.SpeakerBot {
			continue
		}

		msg := e.Message
		if h.Renderer != nil {
			if rendered, err := h.Renderer(msg); err == nil {
				msg = rendered
			}
		}
		if _, err := fmt.Fprintln(h.Writer, strings.TrimSpace(msg)); err != nil {
			return err
		}

		if len(e.Options) == 0 {
			continue
		}
		fmt.Fprintln(h.Writer)
		for i, opt := range e.Options {
			fmt.Fprintf(h.Writer, "  %d. %s\n", i+1, opt.Text)
		}
		fmt.Fprintln(h.Writer)
	}
	return nil
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-h.done:
		return "", io.EOF
	default:
		fmt.Fprint(h.Writer, "> ")
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-h.done:
		return "", io.EOF
	case res, ok := <-h.inputChan:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimRight(res.text, "\r\n"), nil
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[%s]\n", msg)
	return err
}
