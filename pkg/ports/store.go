package ports

import (
	"context"

	"github.com/aretw0/coach/pkg/domain"
)

// SessionStore holds the sessions of a host that serves many surfaces at once.
// It is a hosting concern only: opening a session always starts from the
// greeting, so nothing in a store is ever resumed.
type SessionStore interface {
	// Save stores the session under the given ID.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves a session.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the sessions currently held.
	List(ctx context.Context) ([]string, error)
}
