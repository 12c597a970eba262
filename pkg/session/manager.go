package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed session lock may be held.
const DefaultLockTTL = 30 * time.Second

// ChangeFunc receives the difference produced by every successful operation.
type ChangeFunc func(ctx context.Context, diff *domain.SessionDiff)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager hosts many sessions at once for multi-surface adapters (HTTP, MCP).
// Operations on the same session ID are serialized.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	engine ports.DialogueEngine
	store  ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	newID   func() string

	listenersMu sync.RWMutex
	listeners   []ChangeFunc
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithIDGenerator replaces the random session ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewManager creates a new Session Manager over the engine and store.
func NewManager(engine ports.DialogueEngine, store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		engine:  engine,
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnChange registers a listener for session changes.
func (m *Manager) OnChange(fn ChangeFunc) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Open starts the session at the greeting, replacing whatever was held under
// the same ID. An empty ID is replaced by a generated one.
func (m *Manager) Open(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		sessionID = m.newID()
	}

	var opened *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		// The previous session only feeds the change diff; an unreadable one
		// is overwritten like any other.
		previous, err := m.store.Load(ctx, sessionID)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			m.logger.Warn("discarding unreadable session", "session_id", sessionID, "err", err)
		}

		opened = m.engine.Open(ctx, sessionID)
		if err := m.store.Save(ctx, sessionID, opened); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		if previous != nil {
			m.logger.Debug("session reset", "session_id", sessionID, "discarded_turns", len(previous.Transcript))
		}
		m.notify(ctx, previous, opened)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return opened.Snapshot(), nil
}

// Select applies the referenced option to a held session.
func (m *Manager) Select(ctx context.Context, sessionID string, ref domain.OptionRef) (*domain.Session, error) {
	var next *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}

		next, err = m.engine.Select(ctx, current, ref)
		if err != nil {
			return err
		}

		if err := m.store.Save(ctx, sessionID, next); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		m.notify(ctx, current, next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next.Snapshot(), nil
}

// Get returns a snapshot of a held session.
func (m *Manager) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.store.Load(ctx, sessionID)
		return err
	})
	return s, err
}

// Close closes the session and removes it from the store.
func (m *Manager) Close(ctx context.Context, sessionID string) (*domain.Session, error) {
	var closed *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}

		closed = m.engine.Close(ctx, current)
		if err := m.store.Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		m.notify(ctx, current, closed)
		return nil
	})
	return closed, err
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// Engine returns the dialogue engine sessions run on.
func (m *Manager) Engine() ports.DialogueEngine {
	return m.engine
}

func (m *Manager) notify(ctx context.Context, prev, next *domain.Session) {
	diff := domain.Diff(prev, next)
	if diff == nil {
		return
	}

	m.listenersMu.RLock()
	listeners := make([]ChangeFunc, len(m.listeners))
	copy(listeners, m.listeners)
	m.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, diff)
	}
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
