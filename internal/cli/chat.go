package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/coach"
	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/internal/presentation/tui"
	"github.com/aretw0/coach/pkg/runner"
)

// ChatOptions configures an interactive terminal session.
type ChatOptions struct {
	Engine    *coach.Engine
	SessionID string
	In        io.Reader
	Out       io.Writer

	// JSON switches to JSON-lines IO (scripts, integration tests).
	JSON bool
	// Rich enables the banner and markdown rendering. Callers set it when
	// stdout is a terminal.
	Rich bool

	MaxInputSize int
	Logger       *slog.Logger
}

// RunChat drives one conversation until the user quits or ctx is cancelled.
// Cancellation by signal is a clean exit.
func RunChat(ctx context.Context, opts ChatOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = "cli"
	}

	runnerOpts := []runner.Option{
		runner.WithIO(opts.In, opts.Out),
		runner.WithLogger(logger),
		runner.WithHeadless(opts.JSON),
		runner.WithMaxInputSize(opts.MaxInputSize),
	}

	if opts.Rich && !opts.JSON {
		tui.PrintBanner(opts.Out, fmt.Sprintf("v%s · %s table · type a number, an option, or \"quit\"", coach.Version, opts.Engine.Name))
		render, err := tui.NewRenderer()
		if err != nil {
			logger.Warn("markdown rendering disabled", "err", err)
		} else {
			runnerOpts = append(runnerOpts, runner.WithRenderer(render))
		}
	}

	conv := opts.Engine.NewConversation(sessionID)
	err := runner.NewRunner(runnerOpts...).Run(ctx, conv)
	if errors.Is(err, context.Canceled) {
		logger.Debug("chat interrupted")
		return nil
	}
	return err
}
