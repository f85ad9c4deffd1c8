package sink

import (
	"fmt"
	"io"
	"os"
	"testing"

	"datasink/internal/frame"

	"github.com/parquet-go/parquet-go"
)

// testSchema is the column layout shared by most writer tests.
var testSchema = frame.Schema{
	{Name: "id", Type: frame.KindInt64},
	{Name: "name", Type: frame.KindString},
}

// makeFrame builds a frame over testSchema with n sequential records.
func makeFrame(t *testing.T, n int) *frame.Frame {
	t.Helper()
	records := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, map[string]interface{}{
			"id":   int64(i),
			"name": fmt.Sprintf("row-%d", i),
		})
	}
	f, err := frame.New(testSchema, records)
	if err != nil {
		t.Fatalf("Failed to build test frame: %v", err)
	}
	return f
}

// readParquetRows reads every row of a parquet file back into maps. Map rows
// carry no schema of their own, so the reader needs the file's schema.
func readParquetRows(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open parquet file '%s': %v", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		t.Fatalf("Failed to stat parquet file '%s': %v", path, err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		t.Fatalf("Failed to parse parquet file '%s': %v", path, err)
	}

	reader := parquet.NewGenericReader[map[string]interface{}](f, pf.Schema())
	defer reader.Close()

	total := int(reader.NumRows())
	rows := make([]map[string]interface{}, total)
	for i := range rows {
		rows[i] = map[string]interface{}{}
	}
	if total > 0 {
		n, err := reader.Read(rows)
		if err != nil && err != io.EOF {
			t.Fatalf("Failed to read parquet rows from '%s': %v", path, err)
		}
		rows = rows[:n]
	}
	return rows
}

// asString normalizes a read-back parquet value to a string for comparison.
func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// stubChunkReader is a frame.ChunkReader yielding a fixed chunk sequence,
// optionally failing at a given chunk index.
type stubChunkReader struct {
	schema frame.Schema
	chunks []*frame.Frame
	failAt int // chunk index to fail on, -1 to disable
	idx    int
	closed bool
}

func newStubChunkReader(chunks []*frame.Frame, failAt int) *stubChunkReader {
	var schema frame.Schema
	if len(chunks) > 0 {
		schema = chunks[0].Schema()
	}
	return &stubChunkReader{schema: schema, chunks: chunks, failAt: failAt}
}

func (s *stubChunkReader) Schema() frame.Schema { return s.schema }

func (s *stubChunkReader) Next() (*frame.Frame, error) {
	if s.failAt >= 0 && s.idx == s.failAt {
		return nil, fmt.Errorf("simulated source read failure")
	}
	if s.idx >= len(s.chunks) {
		return nil, io.EOF
	}
	chunk := s.chunks[s.idx]
	s.idx++
	return chunk, nil
}

func (s *stubChunkReader) Close() error {
	s.closed = true
	return nil
}
