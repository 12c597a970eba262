package compiler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/coach/pkg/domain"
)

// Parser is responsible for converting raw bytes into a Node.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a JSON node definition and checks its local invariants:
// the node has an ID and every option has a label.
func (p *Parser) Parse(data []byte) (*domain.Node, error) {
	var node domain.Node
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse node: %w", err)
	}
	if node.ID == "" {
		return nil, fmt.Errorf("node missing ID")
	}
	for i, opt := range node.Options {
		if strings.TrimSpace(opt.Text) == "" {
			return nil, fmt.Errorf("node %s: option %d has empty text", node.ID, i+1)
		}
	}
	return &node, nil
}
