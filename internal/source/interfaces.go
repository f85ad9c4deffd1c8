package source

import "datasink/internal/frame"

// TableReader defines the interface for sources that load an entire table
// into memory in one pass (json, xlsx).
type TableReader interface {
	// Read extracts the full table from the file at filePath.
	// Returns a frame with an inferred schema, or an error.
	Read(filePath string) (*frame.Frame, error)
}
