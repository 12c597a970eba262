package coach

import (
	"context"
	"sync"

	"github.com/aretw0/coach/pkg/domain"
)

// Conversation owns the session of one presentation surface.
// It is safe for concurrent use; observers run after the lock is released.
type Conversation struct {
	engine *Engine
	id     string

	mu        sync.Mutex
	session   *domain.Session
	observers []func([]domain.Entry)
}

// OnChange registers an observer called with a transcript snapshot after
// every open, selection and close.
func (c *Conversation) OnChange(fn func([]domain.Entry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Open starts (or restarts) the conversation at the greeting.
func (c *Conversation) Open() []domain.Entry {
	c.mu.Lock()
	c.session = c.engine.Open(context.Background(), c.id)
	snap, observers := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(observers, snap)
	return snap
}

// Select applies the referenced option and returns the updated transcript.
func (c *Conversation) Select(ref domain.OptionRef) ([]domain.Entry, error) {
	c.mu.Lock()
	next, err := c.engine.Select(context.Background(), c.session, ref)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.session = next
	snap, observers := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(observers, snap)
	return snap, nil
}

// Close ends the conversation and discards its transcript.
func (c *Conversation) Close() {
	c.mu.Lock()
	wasOpen := c.session.IsOpen()
	c.session = c.engine.Close(context.Background(), c.session)
	snap, observers := c.snapshotLocked()
	c.mu.Unlock()

	if wasOpen {
		c.notify(observers, snap)
	}
}

// Transcript returns a copy of the current transcript.
func (c *Conversation) Transcript() []domain.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return domain.CloneTranscript(c.session.Transcript)
}

// CurrentState returns the current state ID, or "" when never opened.
func (c *Conversation) CurrentState() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.CurrentState
}

// IsOpen reports whether the conversation accepts selections.
func (c *Conversation) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.IsOpen()
}

// Options returns the options currently on display.
func (c *Conversation) Options() []domain.Option {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.session.IsOpen() {
		return nil
	}
	return c.session.CurrentOptions()
}

// Session returns a snapshot of the underlying session.
func (c *Conversation) Session() *domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Snapshot()
}

func (c *Conversation) snapshotLocked() ([]domain.Entry, []func([]domain.Entry)) {
	observers := make([]func([]domain.Entry), len(c.observers))
	copy(observers, c.observers)
	return domain.CloneTranscript(c.session.Transcript), observers
}

func (c *Conversation) notify(observers []func([]domain.Entry), snap []domain.Entry) {
	for _, fn := range observers {
		fn(domain.CloneTranscript(snap))
	}
}
