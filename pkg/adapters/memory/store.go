package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/coach/pkg/domain"
)

// Store holds sessions in a map guarded by a RWMutex.
// Values are copied in and out, so callers never share a transcript with the store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*domain.Session)}
}

func (s *Store) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := session.Snapshot()

	s.mu.Lock()
	s.sessions[sessionID] = snapshot
	s.mu.Unlock()
	return nil
}

func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Delete is a no-op for unknown IDs.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// List returns the held session IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	slices.Sort(ids)
	return ids, nil
}

// Len reports how many sessions are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
