package core

import (
	"bufio"
	"io"

	"github.com/packfile/packfile/core/internal/varint"
	"github.com/packfile/packfile/core/internal/wire"
)

// Writer serializes FolderRecords and FileRecords to the container format,
// bit-exact per spec.md §6. It is the single place that emits wire bytes;
// Pack, Add, and any future append path all go through it.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w for archive serialization.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Flush flushes any buffered bytes to the underlying writer.
func (wr *Writer) Flush() error {
	return wr.w.Flush()
}

func (wr *Writer) writeString(s string) error {
	if _, err := wr.w.Write(varint.Append(nil, uint64(len(s)))); err != nil {
		return err
	}
	_, err := wr.w.WriteString(s)
	return err
}

// FolderNormal begins a Normal FolderRecord with numFiles files to follow.
// Callers must call exactly numFiles of FileContent/FileReference afterward,
// in lexicographic filename order (invariant 2).
func (wr *Writer) FolderNormal(path string, numFiles int) error {
	if err := wr.w.WriteByte(wire.FolderNormal); err != nil {
		return err
	}
	if err := wr.writeString(path); err != nil {
		return err
	}
	_, err := wr.w.Write(varint.Append(nil, uint64(numFiles)))
	return err
}

// FolderCopy emits a Copy FolderRecord whose files are elided; the reader
// materializes them from srcFolder, an earlier Normal folder in the archive.
func (wr *Writer) FolderCopy(path, srcFolder string) error {
	if err := wr.w.WriteByte(wire.FolderCopy); err != nil {
		return err
	}
	if err := wr.writeString(path); err != nil {
		return err
	}
	return wr.writeString(srcFolder)
}

// FileContent emits a Content FileRecord: the filename followed by its
// (already Brotli-compressed, or verbatim for ".br" files) payload.
func (wr *Writer) FileContent(filename string, payload []byte) error {
	if err := wr.writeString(filename); err != nil {
		return err
	}
	if err := wr.w.WriteByte(wire.FileContent); err != nil {
		return err
	}
	if _, err := wr.w.Write(varint.Append(nil, uint64(len(payload)))); err != nil {
		return err
	}
	_, err := wr.w.Write(payload)
	return err
}

// FileReference emits a Reference FileRecord pointing at an earlier Content
// record identified by (srcFolder, srcFilename).
func (wr *Writer) FileReference(filename, srcFolder, srcFilename string) error {
	if err := wr.writeString(filename); err != nil {
		return err
	}
	if err := wr.w.WriteByte(wire.FileReference); err != nil {
		return err
	}
	if err := wr.writeString(srcFolder); err != nil {
		return err
	}
	return wr.writeString(srcFilename)
}
