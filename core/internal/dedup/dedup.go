// Package dedup implements the two-level duplicate detector: folder-level
// dedup by aggregate hash, then file-level dedup with a size-based
// admission rule that only emits a Reference when it is strictly smaller
// than the equivalent Content record.
package dedup

import (
	"bytes"
	"sort"

	"github.com/packfile/packfile/core/internal/varint"
)

// FileInfo describes one regular file considered for dedup.
type FileInfo struct {
	Filename string
	Hash     []byte
	Size     uint64 // uncompressed size, used by the admission rule
}

// FolderInfo describes one folder considered for dedup.
//
// Folders must be supplied in the writer's depth-first traversal order.
// Copy and Reference sources are always chosen from earlier positions in
// this order, so every source precedes the records that point at it in the
// archive. This order is not always the lexicographic order of Path: a
// sibling such as "a-c" sorts before "a/b" but is walked after it.
type FolderInfo struct {
	Path    string
	AggHash []byte
	Files   []FileInfo
}

// FolderDecision records whether a folder is written as a Copy.
type FolderDecision struct {
	IsCopy       bool
	SourceFolder string
}

// FileKey identifies a file by its containing folder and name.
type FileKey struct {
	Folder   string
	Filename string
}

// FileDecision records whether a file is written as a Reference.
type FileDecision struct {
	IsReference    bool
	SourceFolder   string
	SourceFilename string
}

// Result holds the outcome of Detect.
type Result struct {
	Folders map[string]FolderDecision
	Files   map[FileKey]FileDecision
}

// Detect runs folder-level dedup followed by file-level dedup with the
// admission rule, per spec.md §4.4.
func Detect(folders []FolderInfo) Result {
	res := Result{
		Folders: make(map[string]FolderDecision, len(folders)),
		Files:   make(map[FileKey]FileDecision),
	}

	detectFolders(folders, res.Folders)
	detectFiles(folders, res.Folders, res.Files)
	return res
}

// detectFolders marks folders whose aggregate hash and filename->hash
// mapping exactly match an earlier folder's as Copy.
func detectFolders(folders []FolderInfo, decisions map[string]FolderDecision) {
	type signature struct {
		path string
		agg  []byte
		byName map[string]string // filename -> hex hash, for exact mapping comparison
	}
	seen := make([]signature, 0, len(folders))

	for _, f := range folders {
		byName := make(map[string]string, len(f.Files))
		for _, file := range f.Files {
			byName[file.Filename] = string(file.Hash)
		}

		match := ""
		for _, s := range seen {
			if !bytes.Equal(s.agg, f.AggHash) {
				continue
			}
			if sameMapping(s.byName, byName) {
				match = s.path
				break
			}
		}

		if match != "" {
			decisions[f.Path] = FolderDecision{IsCopy: true, SourceFolder: match}
		} else {
			decisions[f.Path] = FolderDecision{}
		}
		seen = append(seen, signature{path: f.Path, agg: f.AggHash, byName: byName})
	}
}

func sameMapping(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for name, hash := range a {
		if b[name] != hash {
			return false
		}
	}
	return true
}

// occurrence is one appearance of a file-hash somewhere in the tree.
type occurrence struct {
	folder   string
	filename string
	size     uint64
}

// detectFiles groups files by content hash and admits References for
// duplicates per the size-comparison admission rule.
func detectFiles(folders []FolderInfo, folderDecisions map[string]FolderDecision, fileDecisions map[FileKey]FileDecision) {
	byHash := make(map[string][]occurrence)
	position := make(map[string]int, len(folders))
	for i, f := range folders {
		position[f.Path] = i
		for _, file := range f.Files {
			key := string(file.Hash)
			byHash[key] = append(byHash[key], occurrence{folder: f.Path, filename: file.Filename, size: file.Size})
		}
	}

	for _, occs := range byHash {
		if len(occs) < 2 {
			continue
		}
		sort.Slice(occs, func(i, j int) bool {
			if occs[i].folder != occs[j].folder {
				return position[occs[i].folder] < position[occs[j].folder]
			}
			return occs[i].filename < occs[j].filename
		})

		sourceFolder, sourceFilename := "", ""
		for _, occ := range occs {
			if folderDecisions[occ.folder].IsCopy {
				continue
			}
			if sourceFolder == "" {
				sourceFolder, sourceFilename = occ.folder, occ.filename
				continue
			}
			if admit(sourceFolder, sourceFilename, occ.size) {
				fileDecisions[FileKey{Folder: occ.folder, Filename: occ.filename}] = FileDecision{
					IsReference:    true,
					SourceFolder:   sourceFolder,
					SourceFilename: sourceFilename,
				}
			}
		}
	}
}

// admit applies the "shorter encoding wins" rule: a Reference is only
// emitted if its on-wire size is strictly smaller than the equivalent
// Content record for the same (pre-compression) file size.
func admit(srcFolder, srcFilename string, fileSize uint64) bool {
	refSize := uint64(1 + varint.Len(uint64(len(srcFolder))) + len(srcFolder) +
		varint.Len(uint64(len(srcFilename))) + len(srcFilename))
	contentSize := uint64(1+varint.Len(fileSize)) + fileSize
	return refSize < contentSize
}
