package source

import (
	"encoding/json"
	"fmt"
	"os"

	"datasink/internal/frame"
	"datasink/internal/logging"
)

// JSONReader implements the TableReader interface for JSON files.
type JSONReader struct{}

// Read loads a table from a JSON file specified by filePath.
// The JSON file is expected to contain an array of objects, but will
// gracefully handle a single top-level object as well. Column types are
// inferred from the decoded values.
func (jr *JSONReader) Read(filePath string) (*frame.Frame, error) {
	logging.Logf(logging.Debug, "JSONReader reading file: %s", filePath)
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("JSONReader failed to read file '%s': %w", filePath, err)
	}

	var records []map[string]interface{}
	// Attempt to unmarshal the JSON data into the slice of maps (array expected).
	if err := json.Unmarshal(data, &records); err != nil {
		// If array unmarshal fails, check if it's potentially a single JSON object.
		var singleRecord map[string]interface{}
		if errSingle := json.Unmarshal(data, &singleRecord); errSingle == nil {
			logging.Logf(logging.Debug, "JSON input file '%s' contains a single JSON object, processing as one record.", filePath)
			records = []map[string]interface{}{singleRecord}
		} else {
			return nil, fmt.Errorf("JSONReader failed to unmarshal JSON from '%s' as array or single object: %w", filePath, err)
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("JSONReader: file '%s' contains no records", filePath)
	}

	logging.Logf(logging.Debug, "JSONReader successfully loaded %d records from %s", len(records), filePath)
	return frame.New(frame.InferSchema(records), records)
}
