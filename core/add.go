package core

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"

	"github.com/packfile/packfile/core/internal/compress"
	"github.com/packfile/packfile/core/internal/file"
)

// Add opens archivePath in append mode and writes new Normal folder
// records for the tree rooted at srcDir. Per spec.md §4.6, append mode
// never re-scans existing archive content: it emits no Copy folders and no
// Reference files, even among the newly added files themselves. Any
// WithDedup option is ignored.
func Add(ctx context.Context, archivePath, srcDir string, opts ...PackOption) (*Stats, error) {
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

	var tasks []compress.Task
	o.report(ProgressEvent{Stage: StageHashing, FilesTotal: countFiles(folders)})
	for _, wf := range folders {
		for _, name := range wf.files {
			abs := filepath.Join(srcDir, filepath.FromSlash(path.Join(wf.path, name)))
			tasks = append(tasks, compress.Task{Folder: wf.path, Filename: name, AbsPath: abs})
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
	payloadByFolder := make(map[string]map[string][]byte, len(folders))
	for _, r := range results {
		m, ok := payloadByFolder[r.Folder]
		if !ok {
			m = make(map[string][]byte)
			payloadByFolder[r.Folder] = m
		}
		m[r.Filename] = r.Payload
	}
	sizeByFolder := make(map[string]map[string]uint64, len(folders))
	for _, wf := range folders {
		m := make(map[string]uint64, len(wf.files))
		for _, name := range wf.files {
			abs := filepath.Join(srcDir, filepath.FromSlash(path.Join(wf.path, name)))
			info, statErr := os.Stat(abs)
			if statErr != nil {
				return nil, fmt.Errorf("packfile: stat %s: %w", abs, statErr)
			}
			m[name] = uint64(info.Size()) //nolint:gosec // file sizes are non-negative
		}
		sizeByFolder[wf.path] = m
	}

	out, err := os.OpenFile(archivePath, os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec // archivePath is caller-controlled CLI/API input
	if err != nil {
		return nil, fmt.Errorf("packfile: open %s for append: %w", archivePath, err)
	}
	defer out.Close()

	cw := &file.CountingWriter{W: out}
	w := NewWriter(cw)
	stats := newStats()

	o.report(ProgressEvent{Stage: StageWriting, FilesTotal: countFiles(folders)})
	for _, wf := range folders {
		if err := w.FolderNormal(wf.path, len(wf.files)); err != nil {
			return nil, fmt.Errorf("packfile: write folder %s: %w", wf.path, err)
		}
		for _, name := range wf.files {
			payload := payloadByFolder[wf.path][name]
			if err := w.FileContent(name, payload); err != nil {
				return nil, fmt.Errorf("packfile: write content %s/%s: %w", wf.path, name, err)
			}
			stats.addContent(wf.path, sizeByFolder[wf.path][name], uint64(len(payload))) //nolint:gosec // payload length is non-negative
		}
		o.report(ProgressEvent{Stage: StageWriting, Folder: wf.path, BytesDone: cw.N})
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("packfile: flush %s: %w", archivePath, err)
	}
	return stats, nil
}
