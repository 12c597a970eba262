package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/coach/pkg/table"
)

// ErrInvalidTable is returned by Report.Err in strict mode when issues were found.
var ErrInvalidTable = errors.New("response table has authoring issues")

// Report summarizes the authoring quality of a response table.
// None of these issues stop the engine: dangling targets resolve to the fallback.
type Report struct {
	Greeting string `json:"greeting"`
	Fallback string `json:"fallback"`
	Nodes    int    `json:"nodes"`

	// Dangling lists options whose target has no entry in the table.
	Dangling []table.DanglingRef `json:"dangling,omitempty"`

	// Unreachable lists nodes no sequence of selections from the greeting can reach.
	Unreachable []string `json:"unreachable,omitempty"`

	// NoDirectHome lists non-greeting nodes without an option back to the greeting.
	NoDirectHome []string `json:"no_direct_home,omitempty"`
}

// OK reports whether no issue was found.
func (r Report) OK() bool {
	return len(r.Dangling) == 0 && len(r.Unreachable) == 0 && len(r.NoDirectHome) == 0
}

// Warnings renders every issue as a human readable line.
func (r Report) Warnings() []string {
	var out []string
	for _, d := range r.Dangling {
		out = append(out, fmt.Sprintf("dangling reference %s (falls back to %q)", d, r.Fallback))
	}
	for _, id := range r.Unreachable {
		out = append(out, fmt.Sprintf("node %q is unreachable from %q", id, r.Greeting))
	}
	for _, id := range r.NoDirectHome {
		out = append(out, fmt.Sprintf("node %q has no option back to %q", id, r.Greeting))
	}
	return out
}

// Err returns nil unless strict is set and issues were found.
func (r Report) Err(strict bool) error {
	if !strict || r.OK() {
		return nil
	}
	warnings := r.Warnings()
	return fmt.Errorf("%w: found %d issues:\n- %s", ErrInvalidTable, len(warnings), strings.Join(warnings, "\n- "))
}

// ValidateTable crawls the table from the greeting. A dangling target counts
// as an edge into the fallback node, which is how the engine resolves it.
func ValidateTable(t *table.Table) Report {
	r := Report{
		Greeting: t.GreetingID(),
		Fallback: t.FallbackID(),
		Nodes:    t.Len(),
		Dangling: t.Lint(),
	}

	visited := map[string]bool{}
	queue := []string{t.GreetingID()}

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		node, ok := t.Lookup(currentID)
		if !ok {
			continue
		}
		for _, opt := range node.Options {
			target := opt.NextState
			if !t.Has(target) {
				target = t.FallbackID()
			}
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	for _, node := range t.Nodes() {
		if !visited[node.ID] && node.ID != t.FallbackID() {
			r.Unreachable = append(r.Unreachable, node.ID)
		}
		if node.ID != t.GreetingID() && !node.HasOptionTo(t.GreetingID()) {
			r.NoDirectHome = append(r.NoDirectHome, node.ID)
		}
	}

	return r
}
