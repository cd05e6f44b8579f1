package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/packfile/packfile/core/internal/brotlic"
	"github.com/packfile/packfile/core/internal/extract"
	"github.com/packfile/packfile/core/internal/file"
	"github.com/packfile/packfile/core/internal/sizing"
	"github.com/packfile/packfile/core/internal/varint"
	"github.com/packfile/packfile/core/internal/wire"
)

// unpackFile is a Content or Reference FileRecord parsed from the archive.
type unpackFile struct {
	folder      string
	filename    string
	isReference bool
	payload     []byte
	srcFolder   string
	srcFilename string
}

// Unpack reads the archive at archivePath one record at a time and
// materializes it under destDir, per spec.md §4.7. Broken references and
// broken folder copies are recorded as warnings on the returned Stats and
// do not abort extraction (spec.md §7).
func Unpack(archivePath, destDir string, opts ...PackOption) (*Stats, error) {
	o := newPackOptions(opts...)

	f, err := os.Open(archivePath) //nolint:gosec // archivePath is caller-controlled CLI/API input
	if err != nil {
		return nil, fmt.Errorf("packfile: open %s: %w", archivePath, err)
	}
	defer f.Close()

	dest, err := extract.Open(destDir, extract.WithOverwrite(true))
	if err != nil {
		return nil, err
	}
	defer dest.Close()

	stats := newStats()
	cr := &file.CountingReader{R: f}
	r := bufio.NewReader(cr)

	// folderFiles records, in archive order, every filename materialized
	// directly under a Normal folder — used to resolve Copy folders.
	folderFiles := make(map[string][]string)
	// written marks (folder, filename) pairs already placed on disk, so
	// References and Copy folders can be satisfied by a plain file copy.
	written := make(map[string]bool)

	o.report(ProgressEvent{Stage: StageUnpacking})
	for {
		tag, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
		}

		folder, err := readString(r)
		if err != nil {
			return nil, err
		}

		switch tag {
		case wire.FolderNormal:
			n, err := varint.Read(r)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
			}
			if err := dest.MkdirAll(folder); err != nil {
				return nil, fmt.Errorf("packfile: mkdir %s: %w", folder, err)
			}
			for i := uint64(0); i < n; i++ {
				file, err := readFileRecord(r, folder)
				if err != nil {
					return nil, err
				}
				if err := unpackOne(dest, file, written, stats); err != nil {
					if !errors.Is(err, ErrBrokenReference) {
						return nil, err
					}
					stats.warn(err.Error())
					continue
				}
				folderFiles[folder] = append(folderFiles[folder], file.filename)
				o.report(ProgressEvent{Stage: StageUnpacking, Folder: folder, Path: file.filename, FilesDone: stats.TotalFiles, BytesDone: cr.N})
			}

		case wire.FolderCopy:
			srcFolder, err := readString(r)
			if err != nil {
				return nil, err
			}
			names, ok := folderFiles[srcFolder]
			if !ok {
				stats.warn(fmt.Sprintf("packfile: folder copy %s: %v: source folder %s not found", folder, ErrBrokenReference, srcFolder))
				stats.addCopyFolder(folder)
				continue
			}
			if err := dest.MkdirAll(folder); err != nil {
				return nil, fmt.Errorf("packfile: mkdir %s: %w", folder, err)
			}
			for _, name := range names {
				if err := dest.CopyFile(path.Join(srcFolder, name), path.Join(folder, name)); err != nil {
					return nil, fmt.Errorf("packfile: copy %s/%s: %w", folder, name, err)
				}
				written[path.Join(folder, name)] = true
				stats.addContent(folder, 0, 0)
			}
			stats.addCopyFolder(folder)
			o.report(ProgressEvent{Stage: StageUnpacking, Folder: folder})

		default:
			return nil, fmt.Errorf("%w: unknown folder tag 0x%02x", ErrInvalidArchive, tag)
		}
	}

	return stats, nil
}

func readFileRecord(r *bufio.Reader, folder string) (unpackFile, error) {
	filename, err := readString(r)
	if err != nil {
		return unpackFile{}, err
	}
	bodyTag, err := r.ReadByte()
	if err != nil {
		return unpackFile{}, fmt.Errorf("%w: %v", ErrTruncated, err)
	}

	switch bodyTag {
	case wire.FileContent:
		n, err := varint.Read(r)
		if err != nil {
			return unpackFile{}, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		nInt, err := sizing.ToInt(n, ErrInvalidArchive)
		if err != nil {
			return unpackFile{}, fmt.Errorf("packfile: %s/%s: %w", folder, filename, err)
		}
		payload := make([]byte, nInt)
		if _, err := io.ReadFull(r, payload); err != nil {
			return unpackFile{}, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		return unpackFile{folder: folder, filename: filename, payload: payload}, nil

	case wire.FileReference:
		srcFolder, err := readString(r)
		if err != nil {
			return unpackFile{}, err
		}
		srcFilename, err := readString(r)
		if err != nil {
			return unpackFile{}, err
		}
		return unpackFile{folder: folder, filename: filename, isReference: true, srcFolder: srcFolder, srcFilename: srcFilename}, nil

	default:
		return unpackFile{}, fmt.Errorf("%w: unknown file tag 0x%02x", ErrInvalidArchive, bodyTag)
	}
}

func unpackOne(dest *extract.Destination, file unpackFile, written map[string]bool, stats *Stats) error {
	dstRel := path.Join(file.folder, file.filename)

	if file.isReference {
		srcRel := path.Join(file.srcFolder, file.srcFilename)
		if !written[srcRel] {
			return fmt.Errorf("packfile: reference %s: %w: source %s not materialized", dstRel, ErrBrokenReference, srcRel)
		}
		if err := dest.CopyFile(srcRel, dstRel); err != nil {
			return fmt.Errorf("packfile: reference %s: %w", dstRel, err)
		}
		written[dstRel] = true
		stats.addReference(file.folder, 0)
		return nil
	}

	payload := file.payload
	if !wire.IsPrecompressed(file.filename) {
		decoded, err := brotlic.Decompress(payload)
		if err != nil {
			return fmt.Errorf("packfile: %s: %w", dstRel, ErrDecompression)
		}
		payload = decoded
	}

	c, err := dest.Create(dstRel)
	if err != nil {
		return fmt.Errorf("packfile: create %s: %w", dstRel, err)
	}
	if _, err := c.Write(payload); err != nil {
		_ = c.Discard() //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("packfile: write %s: %w", dstRel, err)
	}
	if err := c.Commit(); err != nil {
		return fmt.Errorf("packfile: commit %s: %w", dstRel, err)
	}
	written[dstRel] = true
	stats.addContent(file.folder, uint64(len(payload)), uint64(len(file.payload))) //nolint:gosec // lengths are non-negative
	return nil
}

func readString(r *bufio.Reader) (string, error) {
	n, err := varint.Read(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	nInt, err := sizing.ToInt(n, ErrInvalidArchive)
	if err != nil {
		return "", fmt.Errorf("packfile: string length: %w", err)
	}
	buf := make([]byte, nInt)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return string(buf), nil
}
