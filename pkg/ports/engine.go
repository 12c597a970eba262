package ports

import (
	"context"

	"github.com/aretw0/coach/pkg/domain"
)

// DialogueEngine is the call contract the core exposes to presentation surfaces.
// All operations work on session values and never mutate their input.
type DialogueEngine interface {
	// Open returns a fresh session at the greeting state.
	Open(ctx context.Context, sessionID string) *domain.Session

	// Select resolves ref against the options on display and transitions.
	Select(ctx context.Context, session *domain.Session, ref domain.OptionRef) (*domain.Session, error)

	// Close returns the closed form of the session, with its transcript discarded.
	Close(ctx context.Context, session *domain.Session) *domain.Session

	// Inspect returns every node of the response table, sorted by ID.
	Inspect() []domain.Node
}
