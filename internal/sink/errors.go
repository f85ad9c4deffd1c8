package sink

import "fmt"

// UnsupportedSourceError indicates the input data source matched none of the
// recognized shapes, or that the matching write path is not available.
type UnsupportedSourceError struct {
	Reason string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported data source: %s", e.Reason)
}

// WriteError indicates an I/O or serialization failure while writing data
// files. Partial output has already been cleaned up when it is returned.
type WriteError struct {
	Dest string // the attempted destination path
	Err  error  // the underlying cause
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write to '%s' failed: %v", e.Dest, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ManifestWriteError indicates the metadata file could not be written after
// the data files succeeded. The data files are intact and valid; only the
// manifest is missing.
type ManifestWriteError struct {
	Path string // the attempted manifest path
	Err  error
}

func (e *ManifestWriteError) Error() string {
	return fmt.Sprintf("manifest write to '%s' failed: %v", e.Path, e.Err)
}

func (e *ManifestWriteError) Unwrap() error { return e.Err }

// ChecksumError indicates a file could not be read back during checksum
// computation.
type ChecksumError struct {
	Path string
	Err  error
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum of '%s' failed: %v", e.Path, e.Err)
}

func (e *ChecksumError) Unwrap() error { return e.Err }
