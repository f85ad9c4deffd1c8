package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"datasink/internal/frame"
	"datasink/internal/logging"
)

// writePartitioned writes each partition of pf to its own part file under the
// dest directory. Partitions may be written in parallel (bounded by
// opts.Concurrency); the part-file names, not the write order, carry the
// partition order. If any partition fails, every part file written by this
// invocation is removed before the *WriteError is returned.
func writePartitioned(pf *frame.PartitionedFrame, dest string, opts Options) (*WriteResult, error) {
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

	n := pf.NumPartitions()
	files := make([]FileInfo, n)

	var g errgroup.Group
	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		path := filepath.Join(dest, fmt.Sprintf(partFileFormat, i))
		// Pre-existing part files from an earlier run are not ours to delete.
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			tracker.addFile(path)
		}
		g.Go(func() error {
			info, err := writePartFileFunc(pf.Partition(i), path, codec)
			if err != nil {
				return fmt.Errorf("partition %d: %w", i, err)
			}
			files[i] = info
			return nil
		})
	}

	// Join barrier: the manifest step upstream must only ever see the
	// complete, consistent set of files.
	if err := g.Wait(); err != nil {
		tracker.removeAll()
		return nil, &WriteError{Dest: dest, Err: err}
	}

	var total int64
	for _, fi := range files {
		total += fi.Rows
	}

	logging.Logf(logging.Info, "Wrote %d partition files under %s (%d rows total)", n, dest, total)
	return &WriteResult{
		Dir:         dest,
		Files:       files,
		TotalRows:   total,
		Partitioned: true,
		Mode:        ModePartitioned,
	}, nil
}
