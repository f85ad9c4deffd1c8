package source

import (
	"io"
	"testing"

	"datasink/internal/frame"
)

func TestNewCSVChunkReaderValidation(t *testing.T) {
	testCases := []struct {
		name        string
		delimiter   string
		commentChar string
		chunkRows   int
		expectError bool
	}{
		{"Defaults", "", "", 100, false},
		{"Tab delimiter", "\t", "", 100, false},
		{"Comment char", "", "#", 100, false},
		{"Multi-char delimiter", ",,", "", 100, true},
		{"Multi-char comment", "", "##", 100, true},
		{"Zero chunk size", "", "", 0, true},
		{"Negative chunk size", "", "", -5, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCSVChunkReader("dummy.csv", tc.delimiter, tc.commentChar, tc.chunkRows)
			if tc.expectError && err == nil {
				t.Error("Expected an error, but got nil")
			}
			if !tc.expectError && err != nil {
				t.Errorf("Expected no error, but got: %v", err)
			}
		})
	}
}

func TestCSVChunkReaderChunking(t *testing.T) {
	content := "id,name\n1,alpha\n2,beta\n3,gamma\n4,delta\n5,epsilon\n"
	filePath := createTempFile(t, content, "chunks-*.csv")

	reader, err := NewCSVChunkReader(filePath, "", "", 2)
	if err != nil {
		t.Fatalf("NewCSVChunkReader failed: %v", err)
	}
	defer reader.Close()

	schema := reader.Schema()
	if len(schema) != 2 {
		t.Fatalf("Expected 2 columns in schema, got %d", len(schema))
	}
	if schema[0].Name != "id" || schema[1].Name != "name" {
		t.Errorf("Unexpected schema column order: %v", schema)
	}
	for _, col := range schema {
		if col.Type != frame.KindString {
			t.Errorf("Expected column '%s' to be string, got %s", col.Name, col.Type)
		}
	}

	var chunkSizes []int
	var names []string
	for {
		chunk, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		chunkSizes = append(chunkSizes, chunk.NumRows())
		for _, rec := range chunk.Records() {
			names = append(names, rec["name"].(string))
		}
	}

	expectedSizes := []int{2, 2, 1}
	if len(chunkSizes) != len(expectedSizes) {
		t.Fatalf("Expected %d chunks, got %d (%v)", len(expectedSizes), len(chunkSizes), chunkSizes)
	}
	for i, size := range expectedSizes {
		if chunkSizes[i] != size {
			t.Errorf("Chunk %d: expected %d rows, got %d", i, size, chunkSizes[i])
		}
	}

	expectedNames := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	for i, want := range expectedNames {
		if names[i] != want {
			t.Errorf("Record %d: expected name '%s', got '%s'", i, want, names[i])
		}
	}

	// Subsequent calls after exhaustion keep returning io.EOF.
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF after exhaustion, got %v", err)
	}
}

func TestCSVChunkReaderSkipsMalformedRows(t *testing.T) {
	content := "a,b\n1,2\nonly-one-field\n3,4\n"
	filePath := createTempFile(t, content, "malformed-*.csv")

	reader, err := NewCSVChunkReader(filePath, "", "", 10)
	if err != nil {
		t.Fatalf("NewCSVChunkReader failed: %v", err)
	}
	defer reader.Close()

	chunk, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if chunk.NumRows() != 2 {
		t.Errorf("Expected 2 valid rows (malformed row skipped), got %d", chunk.NumRows())
	}
}

func TestCSVChunkReaderComments(t *testing.T) {
	content := "# leading comment\nx,y\n1,2\n# interior comment\n3,4\n"
	filePath := createTempFile(t, content, "comments-*.csv")

	reader, err := NewCSVChunkReader(filePath, "", "#", 10)
	if err != nil {
		t.Fatalf("NewCSVChunkReader failed: %v", err)
	}
	defer reader.Close()

	chunk, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if chunk.NumRows() != 2 {
		t.Errorf("Expected 2 data rows with comments skipped, got %d", chunk.NumRows())
	}
	if chunk.Records()[0]["x"] != "1" {
		t.Errorf("Expected first record x='1', got %v", chunk.Records()[0]["x"])
	}
}

func TestCSVChunkReaderEmptyFile(t *testing.T) {
	filePath := createTempFile(t, "", "empty-*.csv")

	reader, err := NewCSVChunkReader(filePath, "", "", 10)
	if err != nil {
		t.Fatalf("NewCSVChunkReader failed: %v", err)
	}
	defer reader.Close()

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF for empty file, got %v", err)
	}
}

func TestCSVChunkReaderHeaderOnly(t *testing.T) {
	filePath := createTempFile(t, "a,b,c\n", "headeronly-*.csv")

	reader, err := NewCSVChunkReader(filePath, "", "", 10)
	if err != nil {
		t.Fatalf("NewCSVChunkReader failed: %v", err)
	}
	defer reader.Close()

	if got := len(reader.Schema()); got != 3 {
		t.Errorf("Expected 3 columns in schema, got %d", got)
	}
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF for header-only file, got %v", err)
	}
}

func TestCSVChunkReaderDuplicateHeaders(t *testing.T) {
	content := "id,val,val\n1,first,second\n"
	filePath := createTempFile(t, content, "dup-*.csv")

	reader, err := NewCSVChunkReader(filePath, "", "", 10)
	if err != nil {
		t.Fatalf("NewCSVChunkReader failed: %v", err)
	}
	defer reader.Close()

	schema := reader.Schema()
	if len(schema) != 2 {
		t.Fatalf("Expected duplicate headers to collapse to 2 columns, got %d", len(schema))
	}

	chunk, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	// Last occurring column wins for duplicate header names.
	if got := chunk.Records()[0]["val"]; got != "second" {
		t.Errorf("Expected last-column value 'second' for duplicate header, got %v", got)
	}
}

func TestCSVChunkReaderMissingFile(t *testing.T) {
	reader, err := NewCSVChunkReader("/nonexistent/path/data.csv", "", "", 10)
	if err != nil {
		t.Fatalf("NewCSVChunkReader failed: %v", err)
	}
	if _, err := reader.Next(); err == nil {
		t.Error("Expected an error for missing file, but got nil")
	}
}
