package sink

import (
	"errors"
	"os"
	"sync"

	"datasink/internal/logging"
)

// pathTracker records the paths one write invocation creates, so that cleanup
// after a failure touches nothing else. Pre-existing files at the destination
// are never tracked and therefore never deleted.
type pathTracker struct {
	mu    sync.Mutex
	files []string
	dirs  []string
}

func newPathTracker() *pathTracker {
	return &pathTracker{}
}

// addFile records a data file this invocation is about to create.
func (t *pathTracker) addFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files = append(t.files, path)
}

// addDir records a directory this invocation created.
func (t *pathTracker) addDir(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirs = append(t.dirs, path)
}

// removeAll deletes every tracked path. Cleanup never fails: paths that were
// never created are ignored, and any other removal error is logged rather
// than returned, so the original write failure is never masked.
func (t *pathTracker) removeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.files) - 1; i >= 0; i-- {
		path := t.files[i]
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Logf(logging.Warning, "Cleanup failed to remove partial file '%s': %v", path, err)
		}
	}
	// Directories are removed last, innermost first. os.Remove only deletes
	// empty directories, so a directory holding files this invocation did not
	// create survives.
	for i := len(t.dirs) - 1; i >= 0; i-- {
		path := t.dirs[i]
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Logf(logging.Warning, "Cleanup failed to remove directory '%s': %v", path, err)
		}
	}
	t.files = nil
	t.dirs = nil
}
