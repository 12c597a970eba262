package domain

import "errors"

// ErrSessionClosed is returned when a transition is requested on a session that
// was never opened or has already been closed.
var ErrSessionClosed = errors.New("session is not open")

// ErrUnknownOption is returned when the selected option is not offered by the current node.
var ErrUnknownOption = errors.New("option not offered by current node")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNodeNotFound is returned by loaders when no definition exists for an ID.
var ErrNodeNotFound = errors.New("node not found")
