package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionOpen  EventType = "session_open"
	EventSessionClose EventType = "session_close"
	EventTransition   EventType = "transition"
	EventFallback     EventType = "fallback"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// SessionEvent represents a session being opened or closed.
type SessionEvent struct {
	EventBase
	StateID string `json:"state_id"`
	Turns   int    `json:"turns"` // transcript length at the time of the event
}

// TransitionEvent represents one selection.
type TransitionEvent struct {
	EventBase
	FromState  string `json:"from_state"`
	OptionText string `json:"option_text"`
	Requested  string `json:"requested"` // NextState named by the option
	Resolved   string `json:"resolved"`  // state actually entered
	Fallback   bool   `json:"fallback,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnOpen       func(context.Context, *SessionEvent)
	OnClose      func(context.Context, *SessionEvent)
	OnTransition func(context.Context, *TransitionEvent)
	OnFallback   func(context.Context, *TransitionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnOpen:       chainSession(h.OnOpen, other.OnOpen),
		OnClose:      chainSession(h.OnClose, other.OnClose),
		OnTransition: chainTransition(h.OnTransition, other.OnTransition),
		OnFallback:   chainTransition(h.OnFallback, other.OnFallback),
	}
}

func chainSession(a, b func(context.Context, *SessionEvent)) func(context.Context, *SessionEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *SessionEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainTransition(a, b func(context.Context, *TransitionEvent)) func(context.Context, *TransitionEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *TransitionEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
