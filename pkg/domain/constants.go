package domain

const (
	// DefaultGreetingID is the well-known initial state of every session.
	DefaultGreetingID = "greeting"

	// DefaultFallbackID is the well-known node substituted for unknown transition targets.
	DefaultFallbackID = "default"
)
