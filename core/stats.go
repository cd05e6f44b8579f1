package core

import "sort"

// FolderStats accumulates per-folder counters for the pack/unpack summary
// (spec.md §7: "a summary block at the end with totals and the top five
// folders by uncompressed size").
type FolderStats struct {
	Folder            string
	Files             int
	References        int
	UncompressedBytes uint64
	StoredBytes       uint64
}

// Stats accumulates counters across an entire Pack or Unpack run.
type Stats struct {
	Folders           map[string]*FolderStats
	TotalFiles        int
	TotalReferences   int
	TotalFolders      int
	CopyFolders       int
	UncompressedBytes uint64
	StoredBytes       uint64
	Warnings          []string
}

func newStats() *Stats {
	return &Stats{Folders: make(map[string]*FolderStats)}
}

func (s *Stats) folder(path string) *FolderStats {
	fs, ok := s.Folders[path]
	if !ok {
		fs = &FolderStats{Folder: path}
		s.Folders[path] = fs
		s.TotalFolders++
	}
	return fs
}

func (s *Stats) addContent(folder string, uncompressed, stored uint64) {
	fs := s.folder(folder)
	fs.Files++
	fs.UncompressedBytes += uncompressed
	fs.StoredBytes += stored
	s.TotalFiles++
	s.UncompressedBytes += uncompressed
	s.StoredBytes += stored
}

func (s *Stats) addReference(folder string, uncompressed uint64) {
	fs := s.folder(folder)
	fs.Files++
	fs.References++
	fs.UncompressedBytes += uncompressed
	s.TotalFiles++
	s.TotalReferences++
	s.UncompressedBytes += uncompressed
}

func (s *Stats) addCopyFolder(folder string) {
	s.folder(folder)
	s.CopyFolders++
}

func (s *Stats) warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// TopFolders returns up to n folders sorted by descending uncompressed
// size, breaking ties by folder path for determinism.
func (s *Stats) TopFolders(n int) []FolderStats {
	all := make([]FolderStats, 0, len(s.Folders))
	for _, fs := range s.Folders {
		all = append(all, *fs)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].UncompressedBytes != all[j].UncompressedBytes {
			return all[i].UncompressedBytes > all[j].UncompressedBytes
		}
		return all[i].Folder < all[j].Folder
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}
