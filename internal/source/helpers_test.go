package source

import (
	"os"
	"testing"
)

// Helper to create a temporary file with specific content.
func createTempFile(t *testing.T, content string, pattern string) string {
	t.Helper()
	tempFile, err := os.CreateTemp(t.TempDir(), pattern)
	if err != nil {
		t.Fatalf("Failed to create temp file (pattern: %s): %v", pattern, err)
	}
	filePath := tempFile.Name()
	_, err = tempFile.WriteString(content)
	if err != nil {
		_ = tempFile.Close()
		t.Fatalf("Failed to write to temp file %s: %v", filePath, err)
	}
	err = tempFile.Close()
	if err != nil {
		t.Fatalf("Failed to close temp file %s: %v", filePath, err)
	}
	return filePath
}
