package table

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingGreeting is returned when the table has no greeting node.
	ErrMissingGreeting = errors.New("response table has no greeting node")
	// ErrMissingFallback is returned when the table has no fallback node.
	ErrMissingFallback = errors.New("response table has no fallback node")
	// ErrFallbackDeadEnd is returned when the fallback node offers no way back to the greeting.
	ErrFallbackDeadEnd = errors.New("fallback node offers no path back to the greeting")
)

// NodeError reports a node that could not be loaded into the table.
type NodeError struct {
	ID    string
	Cause error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q: %v", e.ID, e.Cause)
}

func (e *NodeError) Unwrap() error {
	return e.Cause
}
