package core_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/packfile/packfile/core"
)

// writeTree materializes a small directory tree for Pack to consume:
// four folders, where docs-copy duplicates docs verbatim (folder-level
// dedup), other shares shared.bin with docs above the admission threshold
// (file-level reference), and assets holds one precompressed ".br" file
// stored verbatim.
func writeTree(t *testing.T, root string) {
	t.Helper()
	mustWrite := func(rel string, data []byte) {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, data, 0o644))
	}

	big := make([]byte, 8192)
	for i := range big {
		big[i] = byte(i % 251)
	}

	mustWrite("docs/a.txt", []byte("hello world"))
	mustWrite("docs/shared.bin", big)
	mustWrite("docs-copy/a.txt", []byte("hello world"))
	mustWrite("docs-copy/shared.bin", big)
	mustWrite("other/unique.txt", []byte("only here"))
	mustWrite("other/shared.bin", big)
	mustWrite("assets/logo.png.br", []byte("pretend-already-brotli"))
}

func TestPackUnpackRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	writeTree(t, srcDir)

	archivePath := filepath.Join(t.TempDir(), "out.pack")
	packStats, err := core.Pack(context.Background(), srcDir, archivePath)
	require.NoError(t, err)
	require.Equal(t, 1, packStats.CopyFolders, "docs-copy should be detected as a folder copy")
	require.Greater(t, packStats.TotalReferences, 0, "shared.bin in other/ should dedup to a reference")

	destDir := t.TempDir()
	unpackStats, err := core.Unpack(archivePath, destDir)
	require.NoError(t, err)
	require.Empty(t, unpackStats.Warnings)

	assertFile := func(rel string, want []byte) {
		got, err := os.ReadFile(filepath.Join(destDir, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
		require.Equal(t, want, got, rel)
	}
	assertFile("docs/a.txt", []byte("hello world"))
	assertFile("docs-copy/a.txt", []byte("hello world"))
	assertFile("other/unique.txt", []byte("only here"))
	assertFile("assets/logo.png.br", []byte("pretend-already-brotli"))

	big := make([]byte, 8192)
	for i := range big {
		big[i] = byte(i % 251)
	}
	assertFile("docs/shared.bin", big)
	assertFile("docs-copy/shared.bin", big)
	assertFile("other/shared.bin", big)
}

func TestPackWithoutDedupEmitsNoCopiesOrReferences(t *testing.T) {
	srcDir := t.TempDir()
	writeTree(t, srcDir)

	archivePath := filepath.Join(t.TempDir(), "out.pack")
	stats, err := core.Pack(context.Background(), srcDir, archivePath, core.WithDedup(false))
	require.NoError(t, err)
	require.Zero(t, stats.CopyFolders)
	require.Zero(t, stats.TotalReferences)
}

func TestRandomAccessReaderServesEntriesWithOptionalPassThrough(t *testing.T) {
	srcDir := t.TempDir()
	writeTree(t, srcDir)

	archivePath := filepath.Join(t.TempDir(), "out.pack")
	_, err := core.Pack(context.Background(), srcDir, archivePath)
	require.NoError(t, err)

	r, err := core.Open(archivePath)
	require.NoError(t, err)
	defer r.Close()

	h, err := r.ReadEntry("docs", "a.txt", false)
	require.NoError(t, err)
	require.Equal(t, []byte("hello world"), h.Bytes())

	compressedHandle, err := r.ReadEntry("docs", "a.txt", true)
	require.NoError(t, err)
	require.NotEqual(t, []byte("hello world"), compressedHandle.Bytes(), "keepCompressed should return the stored Brotli bytes, not the plaintext")

	brHandle, err := r.ReadEntry("assets", "logo.png.br", false)
	require.NoError(t, err)
	require.Equal(t, []byte("pretend-already-brotli"), brHandle.Bytes(), ".br entries are never decompressed regardless of keepCompressed")

	_, err = r.ReadEntry("docs", "does-not-exist.txt", false)
	require.ErrorIs(t, err, core.ErrNotFound)

	require.True(t, r.Exists("docs", "a.txt"))
	require.True(t, r.Exists("docs-copy", "a.txt"), "copy folder entries must resolve at open time")
	require.False(t, r.Exists("docs", "does-not-exist.txt"))
}

func TestAddAppendsWithoutDedup(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "base"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "base", "x.txt"), []byte("x"), 0o644))

	archivePath := filepath.Join(t.TempDir(), "out.pack")
	_, err := core.Pack(context.Background(), srcDir, archivePath)
	require.NoError(t, err)

	moreDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(moreDir, "base"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(moreDir, "base", "x.txt"), []byte("x"), 0o644))

	addStats, err := core.Add(context.Background(), archivePath, moreDir)
	require.NoError(t, err)
	require.Zero(t, addStats.CopyFolders, "append mode never emits copies, even for an identical folder")
	require.Zero(t, addStats.TotalReferences)

	destDir := t.TempDir()
	_, err = core.Unpack(archivePath, destDir)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(destDir, "base", "x.txt"))
	require.NoError(t, err)
	require.Equal(t, []byte("x"), data)
}
