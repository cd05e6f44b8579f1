package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/packfile/packfile/core/internal/varint"
	"github.com/packfile/packfile/core/internal/wire"
)

func TestWriterFolderNormalLayout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.FolderNormal("docs", 2))
	require.NoError(t, w.Flush())

	var want []byte
	want = append(want, wire.FolderNormal)
	want = varint.Append(want, uint64(len("docs")))
	want = append(want, "docs"...)
	want = varint.Append(want, 2)
	require.Equal(t, want, buf.Bytes())
}

func TestWriterFolderCopyLayout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.FolderCopy("docs-copy", "docs"))
	require.NoError(t, w.Flush())

	var want []byte
	want = append(want, wire.FolderCopy)
	want = varint.Append(want, uint64(len("docs-copy")))
	want = append(want, "docs-copy"...)
	want = varint.Append(want, uint64(len("docs")))
	want = append(want, "docs"...)
	require.Equal(t, want, buf.Bytes())
}

func TestWriterFileContentLayout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	payload := []byte("compressed-bytes")
	require.NoError(t, w.FileContent("a.txt", payload))
	require.NoError(t, w.Flush())

	var want []byte
	want = varint.Append(want, uint64(len("a.txt")))
	want = append(want, "a.txt"...)
	want = append(want, wire.FileContent)
	want = varint.Append(want, uint64(len(payload)))
	want = append(want, payload...)
	require.Equal(t, want, buf.Bytes())
}

func TestWriterFileReferenceLayout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.FileReference("b.txt", "docs", "a.txt"))
	require.NoError(t, w.Flush())

	var want []byte
	want = varint.Append(want, uint64(len("b.txt")))
	want = append(want, "b.txt"...)
	want = append(want, wire.FileReference)
	want = varint.Append(want, uint64(len("docs")))
	want = append(want, "docs"...)
	want = varint.Append(want, uint64(len("a.txt")))
	want = append(want, "a.txt"...)
	require.Equal(t, want, buf.Bytes())
}
