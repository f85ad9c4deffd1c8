package sink

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// checksumBlockSize bounds how much of a file is held in memory while
// hashing; output files may be large.
const checksumBlockSize = 256 * 1024

// FileChecksum returns the lowercase hexadecimal sha256 digest of the file's
// full byte content, streaming it in fixed-size blocks. The digest is
// deterministic in the file's bytes. Returns *ChecksumError if the file
// cannot be read.
func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &ChecksumError{Path: path, Err: err}
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, checksumBlockSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", &ChecksumError{Path: path, Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
