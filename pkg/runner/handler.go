package runner

import (
	"context"

	"github.com/aretw0/coach/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents transcript entries that were appended since the last call.
	Output(ctx context.Context, entries []domain.Entry) error

	// Input reads one raw choice from the user.
	// It returns io.EOF when the input is exhausted.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (errors, hints, goodbye).
	// This is distinct from bot content.
	SystemOutput(ctx context.Context, msg string) error
}

// Conversation is the surface the Runner drives. *coach.Conversation satisfies it.
type Conversation interface {
	Open() []domain.Entry
	Select(ref domain.OptionRef) ([]domain.Entry, error)
	Close()
}

// ContentRenderer transforms bot messages before they are written
// (e.g. markdown to ANSI) without coupling the runner to a TUI library.
type ContentRenderer func(string) (string, error)
