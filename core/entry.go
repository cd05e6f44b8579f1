package core

import "github.com/packfile/packfile/core/internal/wire"

// Entry describes one Content FileRecord as located by the random-access
// reader's index (spec.md §4.9). It is in-memory only; none of these fields
// are persisted on the wire beyond what the container format already
// carries (folder path, filename, payload bytes).
type Entry struct {
	// Folder is the path of the Normal folder the content actually lives
	// in. For a file reached through a Copy folder this is the copy's
	// source folder, not the copy folder itself.
	Folder string

	// Filename is the original filename, used to detect a ".br" suffix.
	Filename string

	// Offset is the byte offset of the payload's first byte within the
	// archive.
	Offset int64

	// Length is the number of payload bytes to read at Offset (the
	// on-wire, possibly Brotli-compressed, size).
	Length int64
}

// Precompressed reports whether the entry's stored payload is already a
// Brotli stream that must never be decompressed again.
func (e Entry) Precompressed() bool {
	return wire.IsPrecompressed(e.Filename)
}
