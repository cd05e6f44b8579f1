package core

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"time"

	"github.com/packfile/packfile/core/internal/brotlic"
	"github.com/packfile/packfile/core/internal/sizing"
	"github.com/packfile/packfile/core/internal/varint"
	"github.com/packfile/packfile/core/internal/wire"
)

// indexEntry is one slot in the Reader's index: either a Content entry or
// an unresolved Reference, per spec.md §4.9. References are resolved to a
// Content entry at open time (resolveReferences), so by the time Open
// returns, isRef is true only for entries whose chain is broken or cyclic;
// those read as ErrNotFound.
type indexEntry struct {
	isRef       bool
	content     Entry
	refFolder   string
	refFilename string
}

// Reader is a random-access reader over a packed archive: it parses the
// archive once at Open time into an in-memory index, then serves Read
// requests with a single seek+read per entry (spec.md §4.9).
type Reader struct {
	f       *os.File
	folders map[string][]string   // folder -> filenames, in archive order
	entries map[string]indexEntry // "folder/filename" -> entry
	copies  map[string]string     // copy folder -> source folder
}

// Open parses archivePath once and returns a Reader. The returned Reader
// must be closed when no longer needed.
func Open(archivePath string) (*Reader, error) {
	f, err := os.Open(archivePath) //nolint:gosec // archivePath is caller-controlled CLI/API input
	if err != nil {
		return nil, fmt.Errorf("packfile: open %s: %w", archivePath, err)
	}

	rd := &Reader{
		f:       f,
		folders: make(map[string][]string),
		entries: make(map[string]indexEntry),
		copies:  make(map[string]string),
	}
	if err := rd.buildIndex(); err != nil {
		f.Close()
		return nil, err
	}
	rd.materializeCopies()
	rd.resolveReferences()
	return rd, nil
}

// Close releases the Reader's file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}

func key(folder, filename string) string {
	return folder + "/" + filename
}

func (r *Reader) buildIndex() error {
	br := bufio.NewReader(r.f)
	var offset int64

	countByte := func() (byte, error) {
		b, err := br.ReadByte()
		if err == nil {
			offset++
		}
		return b, err
	}
	countString := func() (string, error) {
		n, nb, err := readVarintCounted(br)
		if err != nil {
			return "", err
		}
		offset += int64(nb)
		nInt, err := sizing.ToInt(n, ErrInvalidArchive)
		if err != nil {
			return "", fmt.Errorf("packfile: name length: %w", err)
		}
		buf := make([]byte, nInt)
		if _, err := io.ReadFull(br, buf); err != nil {
			return "", fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		offset += int64(n)
		return string(buf), nil
	}
	countVarint := func() (uint64, error) {
		n, nb, err := readVarintCounted(br)
		offset += int64(nb)
		return n, err
	}

	for {
		tag, err := countByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTruncated, err)
		}

		folder, err := countString()
		if err != nil {
			return err
		}

		switch tag {
		case wire.FolderNormal:
			n, err := countVarint()
			if err != nil {
				return err
			}
			if _, ok := r.folders[folder]; !ok {
				r.folders[folder] = nil
			}
			for i := uint64(0); i < n; i++ {
				filename, err := countString()
				if err != nil {
					return err
				}
				bodyTag, err := countByte()
				if err != nil {
					return err
				}
				switch bodyTag {
				case wire.FileContent:
					plen, err := countVarint()
					if err != nil {
						return err
					}
					plen64, err := sizing.ToInt64(plen, ErrInvalidArchive)
					if err != nil {
						return fmt.Errorf("packfile: %s/%s: %w", folder, filename, err)
					}
					payloadOffset := offset
					if _, err := io.CopyN(io.Discard, br, plen64); err != nil {
						return fmt.Errorf("%w: %v", ErrTruncated, err)
					}
					offset += plen64
					r.folders[folder] = append(r.folders[folder], filename)
					r.entries[key(folder, filename)] = indexEntry{content: Entry{
						Folder: folder, Filename: filename, Offset: payloadOffset, Length: plen64,
					}}

				case wire.FileReference:
					srcFolder, err := countString()
					if err != nil {
						return err
					}
					srcFilename, err := countString()
					if err != nil {
						return err
					}
					r.folders[folder] = append(r.folders[folder], filename)
					r.entries[key(folder, filename)] = indexEntry{isRef: true, refFolder: srcFolder, refFilename: srcFilename}

				default:
					return fmt.Errorf("%w: unknown file tag 0x%02x", ErrInvalidArchive, bodyTag)
				}
			}

		case wire.FolderCopy:
			srcFolder, err := countString()
			if err != nil {
				return err
			}
			r.copies[folder] = srcFolder

		default:
			return fmt.Errorf("%w: unknown folder tag 0x%02x", ErrInvalidArchive, tag)
		}
	}
}

// materializeCopies populates every (copyFolder, filename) key with a copy
// of the source folder's entry, per spec.md §4.9.
func (r *Reader) materializeCopies() {
	for copyFolder, srcFolder := range r.copies {
		names, ok := r.folders[srcFolder]
		if !ok {
			continue
		}
		r.folders[copyFolder] = append([]string(nil), names...)
		for _, name := range names {
			if src, ok := r.entries[key(srcFolder, name)]; ok {
				r.entries[key(copyFolder, name)] = src
			}
		}
	}
}

// resolveReferences follows Reference entries to their Content entry. The
// writer never emits chains longer than one hop, but this resolves
// iteratively for robustness against unexpected inputs.
func (r *Reader) resolveReferences() {
	for k, e := range r.entries {
		if !e.isRef {
			continue
		}
		seen := map[string]bool{k: true}
		cur := e
		for cur.isRef {
			nextKey := key(cur.refFolder, cur.refFilename)
			if seen[nextKey] {
				break
			}
			seen[nextKey] = true
			next, ok := r.entries[nextKey]
			if !ok {
				break
			}
			cur = next
		}
		r.entries[k] = cur
	}
}

// Handle is an opened archive entry: its decompressed (or pass-through
// compressed) bytes, fully materialized in memory.
type Handle struct {
	data []byte
	pos  int64
}

// ReadEntry resolves path ("folder/filename") and returns its content.
// If keepCompressed is true and the entry is not already a ".br" file,
// the stored Brotli bytes are returned without decompression. A ".br"
// entry is always returned as-is regardless of keepCompressed.
func (r *Reader) ReadEntry(folder, filename string, keepCompressed bool) (*Handle, error) {
	e, ok := r.entries[key(folder, filename)]
	if !ok || e.isRef {
		return nil, ErrNotFound
	}

	raw := make([]byte, e.content.Length)
	if _, err := r.f.ReadAt(raw, e.content.Offset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	if e.content.Precompressed() || keepCompressed {
		return &Handle{data: raw}, nil
	}
	data, err := brotlic.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", folder, filename, ErrDecompression)
	}
	return &Handle{data: data}, nil
}

// Len returns the number of bytes held by the handle.
func (h *Handle) Len() int { return len(h.data) }

// Bytes returns the handle's full content without copying.
func (h *Handle) Bytes() []byte { return h.data }

// Read implements io.Reader over the materialized content.
func (h *Handle) Read(p []byte) (int, error) {
	if h.pos >= int64(len(h.data)) {
		return 0, io.EOF
	}
	n := copy(p, h.data[h.pos:])
	h.pos += int64(n)
	return n, nil
}

// Seek implements io.Seeker.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = h.pos
	case io.SeekEnd:
		base = int64(len(h.data))
	default:
		return 0, fmt.Errorf("packfile: invalid whence %d", whence)
	}
	next := base + offset
	if next < 0 {
		return 0, fmt.Errorf("packfile: negative seek position")
	}
	h.pos = next
	return h.pos, nil
}

// ReadLine returns the next line (without its trailing newline) from the
// handle's current position, or io.EOF once exhausted.
func (h *Handle) ReadLine() ([]byte, error) {
	if h.pos >= int64(len(h.data)) {
		return nil, io.EOF
	}
	rest := h.data[h.pos:]
	if idx := indexByte(rest, '\n'); idx >= 0 {
		h.pos += int64(idx) + 1
		return rest[:idx], nil
	}
	h.pos += int64(len(rest))
	return rest, nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func readVarintCounted(r io.ByteReader) (uint64, int, error) {
	v, err := varint.Read(r)
	if err != nil {
		return 0, 0, err
	}
	return v, varint.Len(v), nil
}

// --- io/fs.FS / fs.StatFS / fs.ReadFileFS ---

// fsFile adapts a resolved archive path to fs.File.
type fsFile struct {
	*Handle
	name string
}

func (f *fsFile) Stat() (fs.FileInfo, error) {
	return fileInfo{name: path.Base(f.name), size: int64(f.Handle.Len())}, nil
}
func (f *fsFile) Close() error { return nil }

type fileInfo struct {
	name string
	size int64
	dir  bool
}

func (i fileInfo) Name() string { return i.name }
func (i fileInfo) Size() int64  { return i.size }
func (i fileInfo) ModTime() time.Time { return time.Time{} }
func (i fileInfo) IsDir() bool  { return i.dir }
func (i fileInfo) Sys() any     { return nil }

func (i fileInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

// dirFile lists the files directly under one archive folder. Nested
// folders are not chained into a recursive directory tree: per spec.md §3
// the archive treats folder paths as opaque keys, so only folder paths the
// archive actually recorded are listable directories (an expansion detail,
// not part of the core format).
type dirFile struct {
	name    string
	entries []fs.DirEntry
	pos     int
}

func (d *dirFile) Stat() (fs.FileInfo, error) {
	return fileInfo{name: path.Base(d.name), dir: true}, nil
}
func (d *dirFile) Read([]byte) (int, error) { return 0, fmt.Errorf("packfile: %s: %w", d.name, fs.ErrInvalid) }
func (d *dirFile) Close() error             { return nil }
func (d *dirFile) ReadDir(n int) ([]fs.DirEntry, error) {
	if n <= 0 {
		out := d.entries[d.pos:]
		d.pos = len(d.entries)
		return out, nil
	}
	if d.pos >= len(d.entries) {
		return nil, io.EOF
	}
	end := d.pos + n
	if end > len(d.entries) {
		end = len(d.entries)
	}
	out := d.entries[d.pos:end]
	d.pos = end
	return out, nil
}

type dirEntry struct{ fileInfo }

func (e dirEntry) Type() fs.FileMode          { return e.fileInfo.Mode().Type() }
func (e dirEntry) Info() (fs.FileInfo, error) { return e.fileInfo, nil }

// Open implements fs.FS. name is a slash-separated "folder/filename" path
// (the root folder is "."). Directories are synthesized from folder paths,
// mirroring how the teacher synthesizes directories from file path
// prefixes.
func (r *Reader) Open(name string) (fs.File, error) {
	name = NormalizePath(name)
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if names, ok := r.folders[name]; ok {
		entries := make([]fs.DirEntry, 0, len(names))
		for _, n := range names {
			if e, ok := r.entries[key(name, n)]; ok && !e.isRef {
				entries = append(entries, dirEntry{fileInfo{name: n, size: e.content.Length}})
			}
		}
		return &dirFile{name: name, entries: entries}, nil
	}

	folder, filename := path.Dir(name), path.Base(name)
	h, err := r.ReadEntry(folder, filename, false)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &fsFile{Handle: h, name: name}, nil
}

// Stat implements fs.StatFS.
func (r *Reader) Stat(name string) (fs.FileInfo, error) {
	name = NormalizePath(name)
	folder, filename := path.Dir(name), path.Base(name)
	e, ok := r.entries[key(folder, filename)]
	if !ok || e.isRef {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return fileInfo{name: filename, size: e.content.Length}, nil
}

// ReadFile implements fs.ReadFileFS.
func (r *Reader) ReadFile(name string) ([]byte, error) {
	name = NormalizePath(name)
	folder, filename := path.Dir(name), path.Base(name)
	h, err := r.ReadEntry(folder, filename, false)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
	}
	return h.Bytes(), nil
}

// ListFolders returns every folder path present in the archive, sorted.
func (r *Reader) ListFolders() []string {
	out := make([]string, 0, len(r.folders))
	for f := range r.folders {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ListFiles returns the filenames stored directly under folder, in archive
// order.
func (r *Reader) ListFiles(folder string) []string {
	return append([]string(nil), r.folders[folder]...)
}

// Exists reports whether folder/filename resolves to a readable entry.
func (r *Reader) Exists(folder, filename string) bool {
	e, ok := r.entries[key(folder, filename)]
	return ok && !e.isRef
}
