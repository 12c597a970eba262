package ports

// NodeLoader defines how the response table retrieves node definitions.
// This allows the content source (embedded data, files, Loam, memory) to be decoupled.
type NodeLoader interface {
	// GetNode retrieves the raw JSON definition of a node by ID.
	GetNode(id string) ([]byte, error)

	// ListNodes returns the IDs of all nodes available to the table.
	ListNodes() ([]string, error)
}
