package hashscan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileHashesContentNotPath(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.txt")
	p2 := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(p1, []byte("same content"), 0o644))
	require.NoError(t, os.WriteFile(p2, []byte("same content"), 0o644))

	h1, err := File(p1)
	require.NoError(t, err)
	h2, err := File(p2)
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	require.NoError(t, os.WriteFile(p2, []byte("different content"), 0o644))
	h3, err := File(p2)
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)
}

func TestFolderHashIndependentOfInputOrder(t *testing.T) {
	a := FileEntry{Name: "a.txt", Hash: []byte{1, 2, 3}}
	b := FileEntry{Name: "b.txt", Hash: []byte{4, 5, 6}}

	require.Equal(t, Folder([]FileEntry{a, b}), Folder([]FileEntry{b, a}))
}

func TestFolderHashSensitiveToNamesAndHashes(t *testing.T) {
	a := FileEntry{Name: "a.txt", Hash: []byte{1, 2, 3}}
	b := FileEntry{Name: "b.txt", Hash: []byte{4, 5, 6}}
	renamed := FileEntry{Name: "c.txt", Hash: []byte{4, 5, 6}}

	require.NotEqual(t, Folder([]FileEntry{a, b}), Folder([]FileEntry{a, renamed}))
}
