// Package hashscan computes the per-file and per-folder content digests used
// by the duplicate detector. Digests are MD5, chosen by the archive format
// for cheap content fingerprinting, not for integrity guarantees.
package hashscan

import (
	"crypto/md5" //nolint:gosec // format-mandated fingerprint, not a security boundary
	"encoding/hex"
	"io"
	"os"
	"sort"
)

// chunkSize is the read buffer size used while hashing file content.
const chunkSize = 64 * 1024

// File computes the MD5 digest of a file's raw bytes, streamed in chunks.
func File(path string) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled during the pack walk
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := md5.New() //nolint:gosec // see package doc
	buf := make([]byte, chunkSize)
	// Hide *os.File's WriteTo so CopyBuffer reads through buf.
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{f}, buf); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// FileEntry is one regular file participating in a folder's aggregate digest.
type FileEntry struct {
	Name string
	Hash []byte
}

// Folder computes the aggregate digest of a folder's files: MD5 of the
// concatenation, in lexicographic filename order, of (filename bytes ||
// hex file hash bytes). Callers must pre-sort or let Folder sort; Folder
// sorts defensively so callers may pass entries in any order.
func Folder(files []FileEntry) []byte {
	sorted := make([]FileEntry, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h := md5.New() //nolint:gosec // see package doc
	for _, f := range sorted {
		h.Write([]byte(f.Name))
		h.Write([]byte(hex.EncodeToString(f.Hash)))
	}
	return h.Sum(nil)
}
