package dedup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFolderCopyDetected(t *testing.T) {
	hx := FileInfo{Filename: "x.txt", Hash: []byte("hx"), Size: 1}
	hy := FileInfo{Filename: "y.txt", Hash: []byte("hy"), Size: 1}
	folders := []FolderInfo{
		{Path: "a", AggHash: []byte("agg1"), Files: []FileInfo{hx, hy}},
		{Path: "b", AggHash: []byte("agg1"), Files: []FileInfo{hx, hy}},
	}

	res := Detect(folders)
	require.False(t, res.Folders["a"].IsCopy)
	require.True(t, res.Folders["b"].IsCopy)
	require.Equal(t, "a", res.Folders["b"].SourceFolder)
}

func TestReferenceAdmittedForLargeDuplicate(t *testing.T) {
	bigHash := []byte("big-hash")
	folders := []FolderInfo{
		{Path: "a", AggHash: []byte("agg-a"), Files: []FileInfo{{Filename: "big.bin", Hash: bigHash, Size: 1 << 20}}},
		{Path: "b", AggHash: []byte("agg-b"), Files: []FileInfo{{Filename: "big.bin", Hash: bigHash, Size: 1 << 20}}},
	}

	res := Detect(folders)
	dec, ok := res.Files[FileKey{Folder: "b", Filename: "big.bin"}]
	require.True(t, ok)
	require.True(t, dec.IsReference)
	require.Equal(t, "a", dec.SourceFolder)
	require.Equal(t, "big.bin", dec.SourceFilename)
}

func TestReferenceRejectedForTinyDuplicate(t *testing.T) {
	tinyHash := []byte("tiny-hash")
	folders := []FolderInfo{
		{Path: "a", AggHash: []byte("agg-a"), Files: []FileInfo{{Filename: "q", Hash: tinyHash, Size: 1}}},
		{Path: "b", AggHash: []byte("agg-b"), Files: []FileInfo{{Filename: "q", Hash: tinyHash, Size: 1}}},
	}

	res := Detect(folders)
	_, ok := res.Files[FileKey{Folder: "b", Filename: "q"}]
	require.False(t, ok)
}

func TestCopyFolderFilesExcludedFromReferenceSourcing(t *testing.T) {
	hash := []byte("dup-hash")
	folders := []FolderInfo{
		{Path: "a", AggHash: []byte("agg1"), Files: []FileInfo{{Filename: "f", Hash: hash, Size: 1 << 20}}},
		{Path: "a-copy", AggHash: []byte("agg1"), Files: []FileInfo{{Filename: "f", Hash: hash, Size: 1 << 20}}},
		{Path: "c", AggHash: []byte("agg3"), Files: []FileInfo{{Filename: "f", Hash: hash, Size: 1 << 20}}},
	}

	res := Detect(folders)
	require.True(t, res.Folders["a-copy"].IsCopy)

	dec, ok := res.Files[FileKey{Folder: "c", Filename: "f"}]
	require.True(t, ok)
	require.Equal(t, "a", dec.SourceFolder)
}
