package dsl

import (
	"fmt"

	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/aretw0/coach/pkg/domain"
)

// BackToMenu is the label of the option every topic offers to return to the greeting.
const BackToMenu = "Back to main menu"

// Builder manages the response table construction.
type Builder struct {
	nodes map[string]*NodeBuilder
}

// New creates a new table builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the table.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID: id,
		},
		builder: b,
	}
	b.nodes[id] = nb
	return nb
}

// Greeting adds the well-known greeting node with the given message.
func (b *Builder) Greeting(message string) *NodeBuilder {
	return b.Add(domain.DefaultGreetingID).Say(message)
}

// Fallback adds the well-known fallback node with the given message and a
// single option back to the greeting.
func (b *Builder) Fallback(message string) *NodeBuilder {
	return b.Add(domain.DefaultFallbackID).Say(message).Home()
}

// Build compiles the table into a memory Loader.
func (b *Builder) Build() (*memory.Loader, error) {
	nodes := make([]domain.Node, 0, len(b.nodes))
	for _, nb := range b.nodes {
		nodes = append(nodes, nb.node)
	}

	loader, err := memory.NewFromNodes(nodes...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}

	return loader, nil
}
