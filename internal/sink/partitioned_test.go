package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"datasink/internal/frame"

	"github.com/parquet-go/parquet-go/compress"
)

func makePartitionedFrame(t *testing.T, sizes []int) *frame.PartitionedFrame {
	t.Helper()
	parts := make([]*frame.Frame, 0, len(sizes))
	for _, size := range sizes {
		parts = append(parts, makeFrame(t, size))
	}
	pf, err := frame.NewPartitioned(testSchema, parts)
	if err != nil {
		t.Fatalf("Failed to build partitioned frame: %v", err)
	}
	return pf
}

func TestWritePartitionedEndToEnd(t *testing.T) {
	pf := makePartitionedFrame(t, []int{3, 1, 2})
	dest := filepath.Join(t.TempDir(), "out")

	res, err := Write(&PartitionedTable{Frame: pf}, dest, DefaultCapabilities(), Options{})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if res.Mode != ModePartitioned || !res.Partitioned {
		t.Errorf("Expected partitioned result, got %+v", res)
	}
	if res.Dir != dest {
		t.Errorf("Expected Dir '%s', got '%s'", dest, res.Dir)
	}
	if res.TotalRows != 6 {
		t.Errorf("Expected 6 total rows, got %d", res.TotalRows)
	}
	if len(res.Files) != 3 {
		t.Fatalf("Expected 3 part files, got %d", len(res.Files))
	}

	// Part file names carry the partition order.
	expectedRows := []int64{3, 1, 2}
	for i, fi := range res.Files {
		wantName := fmt.Sprintf("part-%04d.parquet", i)
		if fi.Path != wantName {
			t.Errorf("File %d: expected name '%s', got '%s'", i, wantName, fi.Path)
		}
		if fi.Rows != expectedRows[i] {
			t.Errorf("File %d: expected %d rows, got %d", i, expectedRows[i], fi.Rows)
		}
		rows := readParquetRows(t, filepath.Join(dest, fi.Path))
		if int64(len(rows)) != expectedRows[i] {
			t.Errorf("File %d: expected %d rows on disk, got %d", i, expectedRows[i], len(rows))
		}
	}

	m, err := LoadManifest(filepath.Join(dest, DirManifestName))
	if err != nil {
		t.Fatalf("Failed to load manifest: %v", err)
	}
	if m.Mode != ModePartitioned || m.TotalRows != 6 || len(m.Files) != 3 {
		t.Errorf("Unexpected manifest: %+v", m)
	}
	if err := m.Verify(dest); err != nil {
		t.Errorf("Manifest verification failed: %v", err)
	}
}

func TestWritePartitionedConcurrent(t *testing.T) {
	pf := makePartitionedFrame(t, []int{2, 2, 2, 2, 2, 2, 2, 2})
	dest := filepath.Join(t.TempDir(), "out")

	res, err := Write(&PartitionedTable{Frame: pf}, dest, DefaultCapabilities(), Options{Concurrency: 4})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if res.TotalRows != 16 || len(res.Files) != 8 {
		t.Errorf("Unexpected result: %d rows, %d files", res.TotalRows, len(res.Files))
	}
	// Files slice order matches partition order regardless of write order.
	for i, fi := range res.Files {
		if fi.Path != fmt.Sprintf("part-%04d.parquet", i) {
			t.Errorf("File %d out of order: %s", i, fi.Path)
		}
	}
}

func TestWritePartitionedFailureCleansUp(t *testing.T) {
	originalWrite := writePartFileFunc
	t.Cleanup(func() { writePartFileFunc = originalWrite })

	// Fail the third partition after the first two land on disk.
	writePartFileFunc = func(f *frame.Frame, path string, codec compress.Codec) (FileInfo, error) {
		if strings.HasSuffix(path, "part-0002.parquet") {
			return FileInfo{}, fmt.Errorf("simulated disk failure")
		}
		return writeFrameFile(f, path, codec)
	}

	pf := makePartitionedFrame(t, []int{1, 1, 1, 1})
	dest := filepath.Join(t.TempDir(), "out")

	res, err := Write(&PartitionedTable{Frame: pf}, dest, DefaultCapabilities(), Options{})
	if err == nil {
		t.Fatal("Expected an error, but got nil")
	}
	if res != nil {
		t.Errorf("Expected nil result on failure, got %+v", res)
	}
	var wErr *WriteError
	if !errors.As(err, &wErr) {
		t.Fatalf("Expected *WriteError, got %T", err)
	}

	// Every part file from this invocation is gone, and the directory this
	// invocation created is gone with them.
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("Expected created output directory to be removed after failure")
	}
}

func TestWritePartitionedFailurePreservesExistingFiles(t *testing.T) {
	originalWrite := writePartFileFunc
	t.Cleanup(func() { writePartFileFunc = originalWrite })

	writePartFileFunc = func(f *frame.Frame, path string, codec compress.Codec) (FileInfo, error) {
		return FileInfo{}, fmt.Errorf("simulated disk failure")
	}

	dest := t.TempDir() // pre-existing directory
	preexisting := filepath.Join(dest, "previous-run.parquet")
	if err := os.WriteFile(preexisting, []byte("old data"), 0644); err != nil {
		t.Fatalf("Failed to write pre-existing file: %v", err)
	}

	pf := makePartitionedFrame(t, []int{1})
	if _, err := Write(&PartitionedTable{Frame: pf}, dest, DefaultCapabilities(), Options{}); err == nil {
		t.Fatal("Expected an error, but got nil")
	}

	if _, err := os.Stat(preexisting); err != nil {
		t.Errorf("Expected pre-existing file to survive cleanup: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("Expected pre-existing directory to survive cleanup: %v", err)
	}
}

func TestWritePartitionedFailureKeepsPriorPartFiles(t *testing.T) {
	originalWrite := writePartFileFunc
	t.Cleanup(func() { writePartFileFunc = originalWrite })

	// Fail before any file is created, as a row-coercion failure would.
	writePartFileFunc = func(f *frame.Frame, path string, codec compress.Codec) (FileInfo, error) {
		return FileInfo{}, fmt.Errorf("simulated serialization failure")
	}

	dest := t.TempDir()
	seeded := filepath.Join(dest, "part-0001.parquet")
	if err := os.WriteFile(seeded, []byte("data from an earlier run"), 0644); err != nil {
		t.Fatalf("Failed to seed existing part file: %v", err)
	}

	pf := makePartitionedFrame(t, []int{1, 1, 1})
	if _, err := Write(&PartitionedTable{Frame: pf}, dest, DefaultCapabilities(), Options{}); err == nil {
		t.Fatal("Expected an error, but got nil")
	}

	// The colliding part name belongs to the earlier run, not this
	// invocation; cleanup must leave it alone.
	content, err := os.ReadFile(seeded)
	if err != nil {
		t.Fatalf("Expected seeded part file to survive cleanup: %v", err)
	}
	if string(content) != "data from an earlier run" {
		t.Errorf("Seeded part file content changed: %q", content)
	}
}

func TestWritePartitionedEmptyPartition(t *testing.T) {
	pf := makePartitionedFrame(t, []int{2, 0, 1})
	dest := filepath.Join(t.TempDir(), "out")

	res, err := Write(&PartitionedTable{Frame: pf}, dest, DefaultCapabilities(), Options{})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	// An empty partition still produces a part file so the file set matches
	// the partition count.
	if len(res.Files) != 3 {
		t.Fatalf("Expected 3 part files, got %d", len(res.Files))
	}
	if res.Files[1].Rows != 0 {
		t.Errorf("Expected empty middle partition, got %d rows", res.Files[1].Rows)
	}
	if res.TotalRows != 3 {
		t.Errorf("Expected 3 total rows, got %d", res.TotalRows)
	}
}
