package dsl

import "github.com/aretw0/coach/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Say sets the message of the node.
func (n *NodeBuilder) Say(message string) *NodeBuilder {
	n.node.Message = message
	return n
}

// Option appends an option. Options are displayed in the order they are added.
func (n *NodeBuilder) Option(text, nextState string) *NodeBuilder {
	n.node.Options = append(n.node.Options, domain.Option{
		Text:      text,
		NextState: nextState,
	})
	return n
}

// Home appends the "Back to main menu" option.
func (n *NodeBuilder) Home() *NodeBuilder {
	return n.Option(BackToMenu, domain.DefaultGreetingID)
}

// Meta sets a metadata key on the node.
func (n *NodeBuilder) Meta(key, value string) *NodeBuilder {
	if n.node.Metadata == nil {
		n.node.Metadata = make(map[string]string)
	}
	n.node.Metadata[key] = value
	return n
}

// Add starts another node on the same builder, for chaining.
func (n *NodeBuilder) Add(id string) *NodeBuilder {
	return n.builder.Add(id)
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node.Clone()
}
