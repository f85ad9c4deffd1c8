package sink

import (
	"errors"
	"os"

	"datasink/internal/frame"
	"datasink/internal/logging"
)

// writeSingle serializes one in-memory frame to one parquet file at dest,
// overwriting any existing file at that path. On failure a file this
// invocation created is removed before the *WriteError is returned.
func writeSingle(f *frame.Frame, dest string, opts Options) (*WriteResult, error) {
	codec, err := codecFor(opts.Compression)
	if err != nil {
		return nil, &WriteError{Dest: dest, Err: err}
	}

	// Only a file this invocation brings into existence may be cleaned up;
	// a same-named file from an earlier run is not ours to delete.
	tracker := newPathTracker()
	if _, statErr := os.Stat(dest); errors.Is(statErr, os.ErrNotExist) {
		tracker.addFile(dest)
	}

	info, err := writePartFileFunc(f, dest, codec)
	if err != nil {
		tracker.removeAll()
		return nil, &WriteError{Dest: dest, Err: err}
	}

	logging.Logf(logging.Info, "Wrote single file %s (%d rows, %d bytes)", dest, info.Rows, info.Bytes)
	return &WriteResult{
		Path:      dest,
		Files:     []FileInfo{info},
		TotalRows: info.Rows,
		Mode:      ModeSingle,
	}, nil
}
