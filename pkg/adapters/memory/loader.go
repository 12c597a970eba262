package memory

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/aretw0/coach/pkg/domain"
)

// Loader serves raw node definitions from a map. Handy for tests and for
// tables built in code with pkg/dsl.
type Loader struct {
	nodes map[string][]byte
}

// NewLoader wraps raw JSON definitions keyed by node ID.
func NewLoader(data map[string]string) *Loader {
	l := &Loader{nodes: make(map[string][]byte, len(data))}
	for id, raw := range data {
		l.nodes[id] = []byte(raw)
	}
	return l
}

// NewFromNodes encodes nodes as JSON definitions. IDs must be present and unique.
func NewFromNodes(nodes ...domain.Node) (*Loader, error) {
	l := &Loader{nodes: make(map[string][]byte, len(nodes))}
	for i, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node %d has no id", i)
		}
		if _, dup := l.nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		raw, err := json.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("failed to encode node %s: %w", n.ID, err)
		}
		l.nodes[n.ID] = raw
	}
	return l, nil
}

// GetNode returns the definition stored for id.
func (l *Loader) GetNode(id string) ([]byte, error) {
	raw, ok := l.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	return raw, nil
}

// ListNodes returns the stored IDs in sorted order.
func (l *Loader) ListNodes() ([]string, error) {
	ids := make([]string, 0, len(l.nodes))
	for id := range l.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
