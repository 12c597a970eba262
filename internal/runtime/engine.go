package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/table"
)

// Engine is the session controller. It holds no session state: every
// operation takes a session value and returns a new one.
type Engine struct {
	table  *table.Table
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers callbacks for engine events.
// Hooks registered more than once are chained in registration order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a session controller over an already validated table.
func NewEngine(t *table.Table, opts ...EngineOption) *Engine {
	e := &Engine{
		table:  t,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Table returns the response table the engine runs on.
func (e *Engine) Table() *table.Table {
	return e.table
}

// Inspect returns every node of the response table, sorted by ID.
func (e *Engine) Inspect() []domain.Node {
	return e.table.Nodes()
}

// Open returns a fresh session positioned at the greeting.
// Calling it again for the same ID always yields an equal session.
func (e *Engine) Open(ctx context.Context, sessionID string) *domain.Session {
	s := domain.NewSession(sessionID, e.table.Greeting())

	e.logger.Debug("session opened", "session_id", sessionID, "state", s.CurrentState)
	e.emitSession(ctx, e.hooks.OnOpen, domain.EventSessionOpen, s)
	return s
}

// Transition applies a chosen option to an open session.
// The option is trusted to come from the options on display; use Select to
// resolve an untrusted reference first. Targets missing from the table
// resolve to the fallback node.
func (e *Engine) Transition(ctx context.Context, session *domain.Session, opt domain.Option) (*domain.Session, error) {
	if !session.IsOpen() {
		return nil, domain.ErrSessionClosed
	}

	target, ok := e.table.Lookup(opt.NextState)
	fallback := !ok
	if fallback {
		target = e.table.Fallback()
		e.logger.Debug("unknown target, using fallback",
			"session_id", session.ID,
			"from", session.CurrentState,
			"target", opt.NextState,
			"fallback", target.ID,
		)
	}

	next := session.Snapshot()
	next.Transcript = append(next.Transcript, domain.UserEntry(opt), domain.BotEntry(target))
	next.CurrentState = target.ID

	event := &domain.TransitionEvent{
		EventBase:  e.base(domain.EventTransition, session.ID),
		FromState:  session.CurrentState,
		OptionText: opt.Text,
		Requested:  opt.NextState,
		Resolved:   target.ID,
		Fallback:   fallback,
	}
	if fallback && e.hooks.OnFallback != nil {
		fb := *event
		fb.Type = domain.EventFallback
		e.hooks.OnFallback(ctx, &fb)
	}
	if e.hooks.OnTransition != nil {
		e.hooks.OnTransition(ctx, event)
	}

	return next, nil
}

// Select resolves ref against the options currently on display and transitions.
func (e *Engine) Select(ctx context.Context, session *domain.Session, ref domain.OptionRef) (*domain.Session, error) {
	if !session.IsOpen() {
		return nil, domain.ErrSessionClosed
	}

	opt, ok := ref.Match(session.CurrentOptions())
	if !ok {
		return nil, fmt.Errorf("%w: %s at state %q", domain.ErrUnknownOption, ref, session.CurrentState)
	}
	return e.Transition(ctx, session, opt)
}

// Close returns the closed form of the session. The transcript is discarded.
// Closing a nil or already closed session is a no-op.
func (e *Engine) Close(ctx context.Context, session *domain.Session) *domain.Session {
	if session == nil {
		return &domain.Session{Status: domain.StatusClosed}
	}

	closed := &domain.Session{
		ID:           session.ID,
		CurrentState: session.CurrentState,
		Status:       domain.StatusClosed,
	}
	if !session.IsOpen() {
		return closed
	}

	e.logger.Debug("session closed", "session_id", session.ID, "turns", len(session.Transcript))
	e.emitSession(ctx, e.hooks.OnClose, domain.EventSessionClose, session)
	return closed
}

func (e *Engine) base(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now(),
		Type:      t,
		SessionID: sessionID,
	}
}

func (e *Engine) emitSession(ctx context.Context, hook func(context.Context, *domain.SessionEvent), t domain.EventType, s *domain.Session) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.SessionEvent{
		EventBase: e.base(t, s.ID),
		StateID:   s.CurrentState,
		Turns:     len(s.Transcript),
	})
}
