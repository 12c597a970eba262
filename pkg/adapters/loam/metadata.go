package loam

// NodeMetadata is the frontmatter of a node document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type NodeMetadata struct {
	ID      string      `json:"id" mapstructure:"id"`
	Options []OptionDef `json:"options" mapstructure:"options"`

	// Message overrides the document body when set.
	Message string `json:"message" mapstructure:"message"`

	// General Metadata. Nested maps are flattened with "-" separated keys.
	Metadata map[string]any `json:"metadata" mapstructure:"metadata"`
}

// OptionDef is one entry of the "options" frontmatter list.
// The target may be written as next_state, to or jump_to.
type OptionDef struct {
	Text      string `json:"text" mapstructure:"text"`
	NextState string `json:"next_state" mapstructure:"next_state"`
	To        string `json:"to" mapstructure:"to"`
	JumpTo    string `json:"jump_to" mapstructure:"jump_to"`
}

// Target returns the state the option points to.
func (o OptionDef) Target() string {
	switch {
	case o.NextState != "":
		return o.NextState
	case o.To != "":
		return o.To
	default:
		return o.JumpTo
	}
}
