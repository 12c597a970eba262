package file

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Document is the layout of a response table file (YAML or JSON).
//
//	greeting: greeting
//	fallback: default
//	nodes:
//	  greeting:
//	    message: Hi!
//	    options:
//	      - text: How do I stay motivated?
//	        next_state: motivation
type Document struct {
	Greeting string                    `mapstructure:"greeting"`
	Fallback string                    `mapstructure:"fallback"`
	Nodes    map[string]NodeDefinition `mapstructure:"nodes"`
}

// NodeDefinition is one entry of Document.Nodes. ID defaults to the map key.
type NodeDefinition struct {
	ID       string            `mapstructure:"id"`
	Message  string            `mapstructure:"message"`
	Options  []domain.Option   `mapstructure:"options"`
	Metadata map[string]string `mapstructure:"metadata"`
}

// Loader implements ports.NodeLoader over a single table document.
type Loader struct {
	source   string
	greeting string
	fallback string
	nodes    map[string][]byte
}

// New reads and parses the table document at path.
func New(path string) (*Loader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read response table: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.source = path
	return l, nil
}

// Parse decodes a table document. JSON input is accepted as YAML.
// Unknown keys are rejected so that typos (e.g. "next_sate") surface at load time.
func Parse(data []byte) (*Loader, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response table: %w", err)
	}

	var doc Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &doc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid response table: %w", err)
	}

	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("response table defines no nodes")
	}

	l := &Loader{
		greeting: doc.Greeting,
		fallback: doc.Fallback,
		nodes:    make(map[string][]byte, len(doc.Nodes)),
	}

	for key, def := range doc.Nodes {
		id := def.ID
		if id == "" {
			id = key
		}
		if id != key {
			return nil, fmt.Errorf("node %q declares mismatched id %q", key, id)
		}
		node := domain.Node{
			ID:       id,
			Message:  def.Message,
			Options:  def.Options,
			Metadata: def.Metadata,
		}
		bytes, err := json.Marshal(node)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal node %s: %w", id, err)
		}
		l.nodes[id] = bytes
	}

	return l, nil
}

// GetNode retrieves the raw definition of a node by ID.
func (l *Loader) GetNode(id string) ([]byte, error) {
	content, ok := l.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	return content, nil
}

// ListNodes returns all node IDs in sorted order.
func (l *Loader) ListNodes() ([]string, error) {
	keys := make([]string, 0, len(l.nodes))
	for k := range l.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Greeting returns the greeting ID declared by the document, if any.
func (l *Loader) Greeting() string { return l.greeting }

// Fallback returns the fallback ID declared by the document, if any.
func (l *Loader) Fallback() string { return l.fallback }

// Source returns the path the document was read from (empty for Parse).
func (l *Loader) Source() string { return l.source }
