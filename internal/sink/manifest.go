package sink

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"datasink/internal/logging"
)

const (
	// ManifestVersion identifies the manifest schema.
	ManifestVersion = 1
	// DirManifestName is the manifest filename inside a directory output.
	DirManifestName = "_manifest.json"
	// ManifestSuffix is appended to a single-file output path to locate its
	// sibling manifest.
	ManifestSuffix = ".manifest.json"
)

// ManifestFile is one file descriptor recorded in a manifest. Immutable once
// recorded. Path is relative to the output root.
type ManifestFile struct {
	Path     string `json:"path"`
	Rows     int64  `json:"rows"`
	Bytes    int64  `json:"bytes"`
	Checksum string `json:"checksum"`
}

// Manifest is the durable record persisted beside the output, describing
// exactly what was written.
type Manifest struct {
	Version   int            `json:"version"`
	Mode      string         `json:"mode"`
	Files     []ManifestFile `json:"files"`
	TotalRows int64          `json:"total_rows"`
	CreatedAt time.Time      `json:"created_at"`
}

// ManifestPath returns the well-known manifest location for a write result:
// `<dir>/_manifest.json` for directory outputs, `<file>.manifest.json` beside
// a single-file output.
func ManifestPath(res *WriteResult) string {
	if res.Dir != "" {
		return filepath.Join(res.Dir, DirManifestName)
	}
	return res.Path + ManifestSuffix
}

// nowFunc allows tests to pin manifest timestamps.
var nowFunc = time.Now

// BuildManifest computes a checksum for every written file and assembles the
// manifest record. Returns *ChecksumError if any file cannot be read back.
func BuildManifest(res *WriteResult) (*Manifest, error) {
	root := res.Root()
	files := make([]ManifestFile, 0, len(res.Files))
	for _, fi := range res.Files {
		sum, err := FileChecksum(filepath.Join(root, fi.Path))
		if err != nil {
			return nil, err
		}
		files = append(files, ManifestFile{
			Path:     fi.Path,
			Rows:     fi.Rows,
			Bytes:    fi.Bytes,
			Checksum: sum,
		})
	}
	return &Manifest{
		Version:   ManifestVersion,
		Mode:      res.Mode,
		Files:     files,
		TotalRows: res.TotalRows,
		CreatedAt: nowFunc().UTC(),
	}, nil
}

// WriteManifest serializes the manifest to path. The bytes land in a
// temporary sibling file first and are renamed into place, so a manifest is
// never observable half-written. Returns *ManifestWriteError on failure; the
// data files already written are not touched.
func WriteManifest(m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return &ManifestWriteError{Path: path, Err: err}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &ManifestWriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logging.Logf(logging.Warning, "Failed to remove temporary manifest '%s': %v", tmp, rmErr)
		}
		return &ManifestWriteError{Path: path, Err: err}
	}

	logging.Logf(logging.Info, "Wrote manifest %s", path)
	return nil
}

// LoadManifest reads a manifest back from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest '%s': %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest '%s': %w", path, err)
	}
	return &m, nil
}

// Verify recomputes every file checksum under root against the manifest's
// claims. It also checks that the per-file row counts still sum to TotalRows.
func (m *Manifest) Verify(root string) error {
	var total int64
	for _, f := range m.Files {
		sum, err := FileChecksum(filepath.Join(root, f.Path))
		if err != nil {
			return err
		}
		if sum != f.Checksum {
			return fmt.Errorf("checksum mismatch for '%s': manifest has %s, file has %s", f.Path, f.Checksum, sum)
		}
		total += f.Rows
	}
	if total != m.TotalRows {
		return fmt.Errorf("row count mismatch: manifest files sum to %d, total_rows is %d", total, m.TotalRows)
	}
	return nil
}
