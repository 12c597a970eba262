package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/table"
)

// GraphOverlay contains dynamic session data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromSession marks every state the transcript passed through.
// Bot entries do not carry their state ID, so the overlay replays the options
// chosen from the greeting against the node list.
func OverlayFromSession(nodes []domain.Node, greetingID string, s *domain.Session) *GraphOverlay {
	if s == nil {
		return nil
	}
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	overlay := &GraphOverlay{CurrentNode: s.CurrentState}
	current := greetingID
	overlay.VisitedNodes = append(overlay.VisitedNodes, current)
	for i, entry := range s.Transcript {
		if entry.Speaker != domain.SpeakerUser || i == 0 {
			continue
		}
		prev := s.Transcript[i-1]
		for _, opt := range prev.Options {
			if opt.Text == entry.Message {
				if known[opt.NextState] {
					current = opt.NextState
					overlay.VisitedNodes = append(overlay.VisitedNodes, current)
				}
				break
			}
		}
	}
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart from a list of nodes using the
// default greeting and fallback IDs.
func GenerateMermaid(nodes []domain.Node, overlay *GraphOverlay) string {
	return generate(nodes, domain.DefaultGreetingID, domain.DefaultFallbackID, overlay)
}

// GenerateTableMermaid renders a built table, honoring its greeting and fallback IDs.
func GenerateTableMermaid(t *table.Table, overlay *GraphOverlay) string {
	return generate(t.Nodes(), t.GreetingID(), t.FallbackID(), overlay)
}

// generate applies semantic styling:
// - Greeting: ((Circle))
// - Fallback: {{Hexagon}}
// - Default: [Rectangle]
// Options whose target is missing are drawn as dashed edges into the fallback.
func generate(nodes []domain.Node, greetingID, fallbackID string, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	known := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		known[node.ID] = true
	}

	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.ID {
		case greetingID:
			opener, closer = "((", "))"
		case fallbackID:
			opener, closer = "{{", "}}"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, node.ID, closer))

		for _, opt := range node.Options {
			label := escapeLabel(opt.Text)
			if known[opt.NextState] {
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, label, sanitizeMermaidID(opt.NextState)))
				continue
			}
			// Dangling: the engine lands on the fallback node.
			sb.WriteString(fmt.Sprintf("    %s -. \"%s (%s)\" .-> %s\n", safeID, label, escapeLabel(opt.NextState), sanitizeMermaidID(fallbackID)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
