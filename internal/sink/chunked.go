package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"datasink/internal/frame"
	"datasink/internal/logging"
)

// writeChunked consumes the reader's chunks one at a time and writes each to
// its own numbered part file under the dest directory, in chunk order. Only
// one chunk is buffered at any point. Failure while reading or writing any
// chunk removes every part file written by this invocation before the
// *WriteError is returned.
func writeChunked(r frame.ChunkReader, dest string, opts Options) (*WriteResult, error) {
	codec, err := codecFor(opts.Compression)
	if err != nil {
		return nil, &WriteError{Dest: dest, Err: err}
	}

	tracker := newPathTracker()
	if _, statErr := os.Stat(dest); errors.Is(statErr, os.ErrNotExist) {
		tracker.addDir(dest)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, &WriteError{Dest: dest, Err: fmt.Errorf("failed to create output directory: %w", err)}
	}

	defer func() {
		if err := r.Close(); err != nil {
			logging.Logf(logging.Warning, "Failed to close chunk source for %s: %v", dest, err)
		}
	}()

	files := make([]FileInfo, 0)
	var total int64
	for idx := 0; ; idx++ {
		chunk, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			tracker.removeAll()
			return nil, &WriteError{Dest: dest, Err: fmt.Errorf("chunk %d: failed to read from source: %w", idx, err)}
		}

		path := filepath.Join(dest, fmt.Sprintf(partFileFormat, idx))
		// Pre-existing part files from an earlier run are not ours to delete.
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			tracker.addFile(path)
		}
		info, err := writePartFileFunc(chunk, path, codec)
		if err != nil {
			tracker.removeAll()
			return nil, &WriteError{Dest: dest, Err: fmt.Errorf("chunk %d: %w", idx, err)}
		}
		files = append(files, info)
		total += info.Rows
	}

	logging.Logf(logging.Info, "Wrote %d chunk files under %s (%d rows total)", len(files), dest, total)
	return &WriteResult{
		Dir:         dest,
		Files:       files,
		TotalRows:   total,
		Partitioned: true,
		Mode:        ModeChunked,
	}, nil
}
