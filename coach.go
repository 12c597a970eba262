package coach

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/coach/internal/content"
	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/internal/runtime"
	"github.com/aretw0/coach/pkg/adapters/file"
	loamAdapter "github.com/aretw0/coach/pkg/adapters/loam"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
	"github.com/aretw0/coach/pkg/table"
)

// Engine is the high-level entry point for the coach library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime    *runtime.Engine
	loader     ports.NodeLoader
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	greetingID string
	fallbackID string
	Name       string
}

var _ ports.DialogueEngine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks. Repeated calls are chained.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLoader injects a custom NodeLoader, bypassing source resolution.
func WithLoader(l ports.NodeLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithGreeting overrides the greeting state (default: "greeting").
func WithGreeting(id string) Option {
	return func(e *Engine) {
		e.greetingID = id
	}
}

// WithFallback overrides the fallback state (default: "default").
func WithFallback(id string) Option {
	return func(e *Engine) {
		e.fallbackID = id
	}
}

// wellKnown is implemented by loaders whose source declares the greeting and fallback IDs.
type wellKnown interface {
	Greeting() string
	Fallback() string
}

// New builds an Engine from a response table source:
//   - "" uses the embedded productivity assistant table;
//   - a directory is read as a Loam repository (one markdown document per node);
//   - a file is read as a single YAML or JSON table document.
//
// If WithLoader is provided, source is only used as a label.
func New(source string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		loader, name, err := resolveSource(source)
		if err != nil {
			return nil, err
		}
		eng.loader = loader
		eng.Name = name
	} else if source != "" {
		eng.Name = filepath.Base(source)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("table", eng.Name)
	}

	var tableOpts []table.Option
	greeting, fallback := eng.greetingID, eng.fallbackID
	if wk, ok := eng.loader.(wellKnown); ok {
		if greeting == "" {
			greeting = wk.Greeting()
		}
		if fallback == "" {
			fallback = wk.Fallback()
		}
	}
	if greeting != "" {
		tableOpts = append(tableOpts, table.WithGreeting(greeting))
	}
	if fallback != "" {
		tableOpts = append(tableOpts, table.WithFallback(fallback))
	}

	t, err := table.Build(eng.loader, tableOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build response table: %w", err)
	}

	if refs := t.Lint(); len(refs) > 0 {
		eng.logger.Debug("response table has dangling references", "count", len(refs))
	}

	eng.runtime = runtime.NewEngine(t,
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
	)
	return eng, nil
}

func resolveSource(source string) (ports.NodeLoader, string, error) {
	if source == "" {
		l, err := file.Parse(content.Responses)
		if err != nil {
			return nil, "", fmt.Errorf("embedded table: %w", err)
		}
		return l, content.Name, nil
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, "", fmt.Errorf("invalid table source: %w", err)
	}

	name := filepath.Base(source)
	if info.IsDir() {
		l, err := loamAdapter.Open(source)
		if err != nil {
			return nil, "", err
		}
		return l, name, nil
	}

	l, err := file.New(source)
	if err != nil {
		return nil, "", err
	}
	return l, name, nil
}

// Open returns a fresh session positioned at the greeting.
func (e *Engine) Open(ctx context.Context, sessionID string) *domain.Session {
	return e.runtime.Open(ctx, sessionID)
}

// Select resolves ref against the options on display and transitions.
func (e *Engine) Select(ctx context.Context, s *domain.Session, ref domain.OptionRef) (*domain.Session, error) {
	return e.runtime.Select(ctx, s, ref)
}

// Transition applies an option without checking that it is on display.
func (e *Engine) Transition(ctx context.Context, s *domain.Session, opt domain.Option) (*domain.Session, error) {
	return e.runtime.Transition(ctx, s, opt)
}

// Close returns the closed form of the session.
func (e *Engine) Close(ctx context.Context, s *domain.Session) *domain.Session {
	return e.runtime.Close(ctx, s)
}

// Inspect returns the full table for visualization or introspection tools.
func (e *Engine) Inspect() []domain.Node {
	return e.runtime.Inspect()
}

// Table returns the validated response table.
func (e *Engine) Table() *table.Table {
	return e.runtime.Table()
}

// Loader returns the underlying NodeLoader used by the engine.
func (e *Engine) Loader() ports.NodeLoader {
	return e.loader
}

// NewConversation creates a single-surface controller bound to this engine.
// The conversation starts closed; call Open to show the greeting.
func (e *Engine) NewConversation(id string) *Conversation {
	return &Conversation{
		engine: e,
		id:     id,
	}
}
