package sink

import "path/filepath"

// Write modes recorded in results and manifests.
const (
	ModeSingle      = "single"
	ModePartitioned = "partitioned"
	ModeChunked     = "chunked"
)

// FileInfo describes one written data file. Path is relative to the output
// root (the output directory for directory modes, the containing directory
// for single-file mode).
type FileInfo struct {
	Path  string
	Rows  int64
	Bytes int64
}

// WriteResult is the outcome of one write invocation. It is constructed once
// by the writer and immutable afterwards; the caller owns it.
type WriteResult struct {
	// Path is the output file path in single-file mode, empty otherwise.
	Path string
	// Dir is the output directory in partitioned/chunked mode, empty otherwise.
	Dir string
	// Files lists every written data file in part order.
	Files []FileInfo
	// TotalRows is the row count summed across Files.
	TotalRows int64
	// Partitioned is true when the output is a directory of part files.
	Partitioned bool
	// Mode is the write mode used: single, partitioned or chunked.
	Mode string
}

// Root returns the directory all FileInfo paths are relative to.
func (r *WriteResult) Root() string {
	if r.Dir != "" {
		return r.Dir
	}
	return filepath.Dir(r.Path)
}
