package sink

import (
	"fmt"

	"datasink/internal/frame"
)

// DataSource is the tagged input variant consumed by Write. Exactly three
// shapes exist: SingleTable, PartitionedTable and ChunkedSource. The shape is
// selected once at the boundary by the caller; the writer never inspects the
// data's size to second-guess it.
type DataSource interface {
	// label returns the human-readable shape name and seals the interface.
	label() string
}

// SingleTable wraps an in-memory table small enough to serialize in one pass.
type SingleTable struct {
	Frame *frame.Frame
}

func (s *SingleTable) label() string { return "single table" }

// PartitionedTable wraps a partitioned table whose partitions are written
// independently, one file each.
type PartitionedTable struct {
	Frame *frame.PartitionedFrame
}

func (s *PartitionedTable) label() string { return "partitioned table" }

// ChunkedSource wraps a lazy, finite sequence of in-memory chunks. Chunks are
// consumed and flushed one at a time; no more than one is buffered.
type ChunkedSource struct {
	Reader frame.ChunkReader
}

func (s *ChunkedSource) label() string { return "chunked reader" }

// Capabilities records which optional write paths are available. It is
// resolved once at process start and injected, never probed per call site.
type Capabilities struct {
	// Partitioned reports whether the partitioned write path is available.
	Partitioned bool
}

// DefaultCapabilities returns the capability set for this build.
func DefaultCapabilities() Capabilities {
	return Capabilities{Partitioned: true}
}

// writeFunc is one of the three write strategies, bound to its data source.
type writeFunc func(dest string, opts Options) (*WriteResult, error)

// selectStrategy inspects the declared shape of the data source and returns
// the matching write path. Selection is by shape only, never by size.
// Returns *UnsupportedSourceError if the input matches no known shape or the
// matching path is unavailable.
func selectStrategy(ds DataSource, caps Capabilities) (writeFunc, error) {
	switch s := ds.(type) {
	case *SingleTable:
		if s.Frame == nil {
			return nil, &UnsupportedSourceError{Reason: "single table source has no frame"}
		}
		return func(dest string, opts Options) (*WriteResult, error) {
			return writeSingle(s.Frame, dest, opts)
		}, nil
	case *PartitionedTable:
		if !caps.Partitioned {
			return nil, &UnsupportedSourceError{Reason: "partitioned table support is not available"}
		}
		if s.Frame == nil {
			return nil, &UnsupportedSourceError{Reason: "partitioned table source has no frame"}
		}
		return func(dest string, opts Options) (*WriteResult, error) {
			return writePartitioned(s.Frame, dest, opts)
		}, nil
	case *ChunkedSource:
		if s.Reader == nil {
			return nil, &UnsupportedSourceError{Reason: "chunked source has no reader"}
		}
		return func(dest string, opts Options) (*WriteResult, error) {
			return writeChunked(s.Reader, dest, opts)
		}, nil
	case nil:
		return nil, &UnsupportedSourceError{Reason: "nil data source"}
	default:
		return nil, &UnsupportedSourceError{Reason: fmt.Sprintf("unrecognized source shape %T", ds)}
	}
}
