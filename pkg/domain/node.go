package domain

// Option is a labeled, selectable transition from the current node to NextState.
// NextState may name a state that does not exist in the table; the engine
// resolves those to the fallback node.
type Option struct {
	Text      string `json:"text" yaml:"text" mapstructure:"text"`
	NextState string `json:"next_state" yaml:"next_state" mapstructure:"next_state"`
}

// Node is one state of the conversation.
type Node struct {
	ID string `json:"id" yaml:"id"`

	// Message is shown verbatim. It may contain line breaks and bullet-like
	// sections; the engine never parses it.
	Message string `json:"message" yaml:"message"`

	// Options are presented in slice order.
	Options []Option `json:"options" yaml:"options"`

	// Metadata allows for extensible key-value pairs (e.g. topic, source file).
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Clone returns a copy of the node whose slices and maps are not shared.
func (n Node) Clone() Node {
	out := n
	out.Options = CloneOptions(n.Options)
	if n.Metadata != nil {
		out.Metadata = make(map[string]string, len(n.Metadata))
		for k, v := range n.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// HasOptionTo reports whether any option of the node targets the given state.
func (n Node) HasOptionTo(stateID string) bool {
	for _, opt := range n.Options {
		if opt.NextState == stateID {
			return true
		}
	}
	return false
}

// CloneOptions copies an option list. A nil input stays nil.
func CloneOptions(opts []Option) []Option {
	if opts == nil {
		return nil
	}
	out := make([]Option, len(opts))
	copy(out, opts)
	return out
}
