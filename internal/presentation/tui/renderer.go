package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders bot messages as markdown using glamour.
// Bullet characters used by the response table are turned into markdown list items.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return func(message string) (string, error) {
		out, err := r.Render(toMarkdown(message))
		if err != nil {
			return "", err
		}
		return strings.TrimRight(out, "\n"), nil
	}, nil
}

// toMarkdown keeps line breaks and converts "•" bullets into list items.
func toMarkdown(message string) string {
	lines := strings.Split(message, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "•"):
			lines[i] = "- " + strings.TrimSpace(strings.TrimPrefix(trimmed, "•"))
		case trimmed != "" && i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" && !strings.HasPrefix(strings.TrimSpace(lines[i+1]), "•"):
			// Hard line break between consecutive prose lines.
			lines[i] = line + "  "
		}
	}
	return strings.Join(lines, "\n")
}
