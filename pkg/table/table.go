package table

import (
	"fmt"
	"sort"

	"github.com/aretw0/coach/internal/compiler"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
)

// Table maps state identifiers to nodes.
type Table struct {
	nodes      map[string]domain.Node
	ids        []string
	greetingID string
	fallbackID string
}

// Option configures how a Table is built.
type Option func(*Table)

// WithGreeting overrides the well-known greeting ID (default: "greeting").
func WithGreeting(id string) Option {
	return func(t *Table) {
		t.greetingID = id
	}
}

// WithFallback overrides the well-known fallback ID (default: "default").
func WithFallback(id string) Option {
	return func(t *Table) {
		t.fallbackID = id
	}
}

// DanglingRef is an option whose target has no entry in the table.
type DanglingRef struct {
	From   string `json:"from"`
	Option string `json:"option"`
	Target string `json:"target"`
}

func (d DanglingRef) String() string {
	return fmt.Sprintf("%s: %q -> %s", d.From, d.Option, d.Target)
}

// Build loads every node exposed by the loader and validates the table shape.
func Build(loader ports.NodeLoader, opts ...Option) (*Table, error) {
	t := &Table{
		nodes:      make(map[string]domain.Node),
		greetingID: domain.DefaultGreetingID,
		fallbackID: domain.DefaultFallbackID,
	}
	for _, opt := range opts {
		opt(t)
	}

	ids, err := loader.ListNodes()
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	parser := compiler.NewParser()
	for _, id := range ids {
		raw, err := loader.GetNode(id)
		if err != nil {
			return nil, &NodeError{ID: id, Cause: err}
		}
		node, err := parser.Parse(raw)
		if err != nil {
			return nil, &NodeError{ID: id, Cause: err}
		}
		if node.ID != id {
			return nil, &NodeError{ID: id, Cause: fmt.Errorf("definition declares id %q", node.ID)}
		}
		t.nodes[id] = node.Clone()
	}

	if err := t.validate(); err != nil {
		return nil, err
	}

	t.ids = make([]string, 0, len(t.nodes))
	for id := range t.nodes {
		t.ids = append(t.ids, id)
	}
	sort.Strings(t.ids)

	return t, nil
}

func (t *Table) validate() error {
	if _, ok := t.nodes[t.greetingID]; !ok {
		return fmt.Errorf("%w: %q", ErrMissingGreeting, t.greetingID)
	}
	fallback, ok := t.nodes[t.fallbackID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingFallback, t.fallbackID)
	}
	if !fallback.HasOptionTo(t.greetingID) {
		return ErrFallbackDeadEnd
	}
	return nil
}

// Lookup returns a copy of the node for the given state.
func (t *Table) Lookup(id string) (domain.Node, bool) {
	node, ok := t.nodes[id]
	if !ok {
		return domain.Node{}, false
	}
	return node.Clone(), true
}

// Has reports whether the state exists.
func (t *Table) Has(id string) bool {
	_, ok := t.nodes[id]
	return ok
}

// GreetingID returns the ID of the initial state.
func (t *Table) GreetingID() string { return t.greetingID }

// FallbackID returns the ID of the node substituted for unknown targets.
func (t *Table) FallbackID() string { return t.fallbackID }

// Greeting returns the initial node.
func (t *Table) Greeting() domain.Node {
	return t.nodes[t.greetingID].Clone()
}

// Fallback returns the fallback node.
func (t *Table) Fallback() domain.Node {
	return t.nodes[t.fallbackID].Clone()
}

// IDs returns all state IDs in sorted order.
func (t *Table) IDs() []string {
	out := make([]string, len(t.ids))
	copy(out, t.ids)
	return out
}

// Len returns the number of states.
func (t *Table) Len() int { return len(t.nodes) }

// Nodes returns copies of all nodes, sorted by ID.
func (t *Table) Nodes() []domain.Node {
	out := make([]domain.Node, 0, len(t.ids))
	for _, id := range t.ids {
		out = append(out, t.nodes[id].Clone())
	}
	return out
}

// Lint lists every option whose target is not in the table, in table order.
// These are tolerated at runtime (the fallback node is used instead).
func (t *Table) Lint() []DanglingRef {
	var refs []DanglingRef
	for _, id := range t.ids {
		for _, opt := range t.nodes[id].Options {
			if _, ok := t.nodes[opt.NextState]; !ok {
				refs = append(refs, DanglingRef{From: id, Option: opt.Text, Target: opt.NextState})
			}
		}
	}
	return refs
}
