package core

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/packfile/packfile/core/internal/compress"
	"github.com/packfile/packfile/core/internal/dedup"
	"github.com/packfile/packfile/core/internal/file"
	"github.com/packfile/packfile/core/internal/hashscan"
	"github.com/packfile/packfile/core/internal/ignore"
	"github.com/packfile/packfile/core/internal/write"
)

// walkedFolder is one directory discovered during the pack-time tree walk,
// with its eligible regular files in lexicographic order.
type walkedFolder struct {
	path  string
	files []string // filenames only, lexicographic
}

// Pack walks srcDir and writes a new archive to archivePath, applying
// two-level dedup (unless WithDedup(false)) and compressing non-duplicate,
// non-precompressed files in parallel. It overwrites archivePath if it
// already exists.
func Pack(ctx context.Context, srcDir, archivePath string, opts ...PackOption) (*Stats, error) {
	o := newPackOptions(opts...)

	root, err := os.OpenRoot(srcDir)
	if err != nil {
		return nil, fmt.Errorf("packfile: open %s: %w", srcDir, err)
	}
	defer root.Close()

	o.log().Info("enumerating", "dir", srcDir)
	folders, err := walkTree(root, o)
	if err != nil {
		return nil, err
	}

	folderInfos := make([]dedup.FolderInfo, 0, len(folders))
	absPath := make(map[dedup.FileKey]string, len(folders))

	o.report(ProgressEvent{Stage: StageHashing, FilesTotal: countFiles(folders)})
	done := 0
	for _, wf := range folders {
		fi := dedup.FolderInfo{Path: wf.path, Files: make([]dedup.FileInfo, 0, len(wf.files))}
		entries := make([]hashscan.FileEntry, 0, len(wf.files))
		for _, name := range wf.files {
			rel := path.Join(wf.path, name)
			abs := filepath.Join(srcDir, filepath.FromSlash(rel))
			info, statErr := os.Stat(abs)
			if statErr != nil {
				return nil, fmt.Errorf("packfile: stat %s: %w", rel, statErr)
			}
			hash, hashErr := hashscan.File(abs)
			if hashErr != nil {
				return nil, fmt.Errorf("packfile: hash %s: %w", rel, hashErr)
			}
			fi.Files = append(fi.Files, dedup.FileInfo{Filename: name, Hash: hash, Size: uint64(info.Size())}) //nolint:gosec // file sizes are non-negative
			entries = append(entries, hashscan.FileEntry{Name: name, Hash: hash})
			absPath[dedup.FileKey{Folder: wf.path, Filename: name}] = abs

			done++
			o.report(ProgressEvent{Stage: StageHashing, Folder: wf.path, Path: name, FilesDone: done})
		}
		fi.AggHash = hashscan.Folder(entries)
		folderInfos = append(folderInfos, fi)
	}

	o.report(ProgressEvent{Stage: StageDeduping})
	var decisions dedup.Result
	if o.dedup {
		decisions = dedup.Detect(folderInfos)
	} else {
		decisions = dedup.Result{Folders: map[string]dedup.FolderDecision{}, Files: map[dedup.FileKey]dedup.FileDecision{}}
	}

	var tasks []compress.Task
	for _, fi := range folderInfos {
		if decisions.Folders[fi.Path].IsCopy {
			continue
		}
		for _, file := range fi.Files {
			key := dedup.FileKey{Folder: fi.Path, Filename: file.Filename}
			if decisions.Files[key].IsReference {
				continue
			}
			tasks = append(tasks, compress.Task{Folder: fi.Path, Filename: file.Filename, AbsPath: absPath[key]})
		}
	}

	o.report(ProgressEvent{Stage: StageCompressing, FilesTotal: len(tasks)})
	var compDone atomic.Int64
	results, err := compress.Run(ctx, tasks, o.workers, func(t compress.Task) {
		done := compDone.Add(1)
		o.report(ProgressEvent{Stage: StageCompressing, Folder: t.Folder, Path: t.Filename, FilesDone: int(done), FilesTotal: len(tasks)})
	})
	if err != nil {
		return nil, fmt.Errorf("packfile: compress: %w", err)
	}
	payloads := make(map[dedup.FileKey][]byte, len(results))
	for _, r := range results {
		payloads[dedup.FileKey{Folder: r.Folder, Filename: r.Filename}] = r.Payload
	}

	out, err := os.Create(archivePath) //nolint:gosec // archivePath is caller-controlled CLI/API input
	if err != nil {
		return nil, fmt.Errorf("packfile: create %s: %w", archivePath, err)
	}
	defer out.Close()

	cw := &file.CountingWriter{W: out}
	w := NewWriter(cw)
	stats := newStats()

	o.report(ProgressEvent{Stage: StageWriting, FilesTotal: countFiles(folders)})
	for _, fi := range folderInfos {
		if len(fi.Files) == 0 {
			continue
		}
		decision := decisions.Folders[fi.Path]
		if decision.IsCopy {
			if err := w.FolderCopy(fi.Path, decision.SourceFolder); err != nil {
				return nil, fmt.Errorf("packfile: write folder %s: %w", fi.Path, err)
			}
			stats.addCopyFolder(fi.Path)
			continue
		}

		if err := w.FolderNormal(fi.Path, len(fi.Files)); err != nil {
			return nil, fmt.Errorf("packfile: write folder %s: %w", fi.Path, err)
		}
		for _, file := range fi.Files {
			key := dedup.FileKey{Folder: fi.Path, Filename: file.Filename}
			if fd := decisions.Files[key]; fd.IsReference {
				if err := w.FileReference(file.Filename, fd.SourceFolder, fd.SourceFilename); err != nil {
					return nil, fmt.Errorf("packfile: write reference %s/%s: %w", fi.Path, file.Filename, err)
				}
				stats.addReference(fi.Path, file.Size)
				continue
			}
			payload := payloads[key]
			if err := w.FileContent(file.Filename, payload); err != nil {
				return nil, fmt.Errorf("packfile: write content %s/%s: %w", fi.Path, file.Filename, err)
			}
			stats.addContent(fi.Path, file.Size, uint64(len(payload))) //nolint:gosec // payload length is non-negative
		}
		o.report(ProgressEvent{Stage: StageWriting, Folder: fi.Path, BytesDone: cw.N})
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("packfile: flush %s: %w", archivePath, err)
	}
	return stats, nil
}

// walkTree enumerates directories in depth-first order and, for each, its
// eligible regular files in lexicographic order. Symlinked files and
// directories are skipped; junk filenames are filtered per the ignore set.
func walkTree(root *os.Root, o *PackOptions) ([]walkedFolder, error) {
	order := make([]string, 0, 16)
	byFolder := make(map[string][]string, 16)

	walkFS := root.FS()
	err := fs.WalkDir(walkFS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Type()&fs.ModeSymlink != 0 {
				return fs.SkipDir
			}
			if _, ok := byFolder[p]; !ok {
				order = append(order, p)
				byFolder[p] = nil
			}
			return nil
		}

		if ignore.Match(path.Base(p)) {
			return nil
		}
		info, ok, resolveErr := write.ResolveEntryInfo(root, p, d)
		if resolveErr != nil {
			return fmt.Errorf("packfile: %s: %w", p, resolveErr)
		}
		if !ok || info == nil {
			return nil
		}

		parent := path.Dir(p)
		byFolder[parent] = append(byFolder[parent], path.Base(p))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("packfile: walk: %w", err)
	}

	folders := make([]walkedFolder, 0, len(order))
	for _, p := range order {
		files := byFolder[p]
		if len(files) == 0 {
			continue
		}
		sort.Strings(files)
		folders = append(folders, walkedFolder{path: p, files: files})
	}
	return folders, nil
}

func countFiles(folders []walkedFolder) int {
	n := 0
	for _, f := range folders {
		n += len(f.files)
	}
	return n
}
