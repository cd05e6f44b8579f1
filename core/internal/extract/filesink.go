// Package extract writes archive entries to the filesystem using atomic
// temp-file-then-rename commits, so a crash or error mid-unpack never leaves
// a partially written file visible at its final path.
package extract

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Destination writes entries under a root directory.
type Destination struct {
	root      *os.Root
	destDir   string
	overwrite bool
}

// Option configures a Destination.
type Option func(*Destination)

// WithOverwrite makes ShouldWrite report true for files that already exist
// at the destination; by default it reports false for them. Create and
// CopyFile replace an existing file either way.
func WithOverwrite(overwrite bool) Option {
	return func(d *Destination) { d.overwrite = overwrite }
}

// Open creates destDir if necessary and opens it as the root for subsequent
// writes. All relative paths passed to Create are resolved, and symlink
// escapes outside destDir are rejected, via os.Root.
func Open(destDir string, opts ...Option) (*Destination, error) {
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return nil, fmt.Errorf("extract: mkdir %s: %w", destDir, err)
	}
	root, err := os.OpenRoot(destDir)
	if err != nil {
		return nil, fmt.Errorf("extract: open root %s: %w", destDir, err)
	}
	d := &Destination{root: root, destDir: destDir}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Close releases the destination's root handle.
func (d *Destination) Close() error {
	return d.root.Close()
}

// Exists reports whether relPath already exists under the destination.
func (d *Destination) Exists(relPath string) bool {
	_, err := d.root.Stat(filepath.FromSlash(relPath))
	return err == nil
}

// MkdirAll creates relDir (and its parents) under the destination.
func (d *Destination) MkdirAll(relDir string) error {
	if relDir == "" || relDir == "." {
		return nil
	}
	return d.root.MkdirAll(filepath.FromSlash(relDir), 0o750)
}

// ShouldWrite reports whether relPath should be (re)written, honoring the
// overwrite option.
func (d *Destination) ShouldWrite(relPath string) bool {
	if d.overwrite {
		return true
	}
	return !d.Exists(relPath)
}

// Create opens a Committer for relPath. The returned Committer buffers
// writes to a sibling temp file; Commit renames it into place, Discard
// removes it.
func (d *Destination) Create(relPath string) (*Committer, error) {
	if !fs.ValidPath(relPath) {
		return nil, &fs.PathError{Op: "create", Path: relPath, Err: fs.ErrInvalid}
	}
	destRel := filepath.FromSlash(relPath)
	if dir := filepath.Dir(destRel); dir != "." {
		if err := d.root.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("extract: mkdir for %s: %w", relPath, err)
		}
	}

	tempFile, tempRel, err := createTempFile(d.root, filepath.Dir(destRel), ".packfile-")
	if err != nil {
		return nil, fmt.Errorf("extract: temp file for %s: %w", relPath, err)
	}
	return &Committer{
		root:     d.root,
		destPath: filepath.Join(d.destDir, destRel),
		destRel:  destRel,
		tempFile: tempFile,
		tempRel:  tempRel,
	}, nil
}

// CopyFile copies an already-materialized file at srcRel to dstRel, used to
// realize Reference and Copy records without re-reading the archive.
func (d *Destination) CopyFile(srcRel, dstRel string) error {
	src, err := d.root.Open(filepath.FromSlash(srcRel))
	if err != nil {
		return fmt.Errorf("extract: open source %s: %w", srcRel, err)
	}
	defer src.Close()

	c, err := d.Create(dstRel)
	if err != nil {
		return err
	}
	if _, err := c.ReadFrom(src); err != nil {
		_ = c.Discard() //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("extract: copy %s to %s: %w", srcRel, dstRel, err)
	}
	return c.Commit()
}

// Committer is an io.Writer that becomes visible at its final path only on
// Commit; Discard abandons the write.
type Committer struct {
	root     *os.Root
	destPath string
	destRel  string
	tempFile *os.File
	tempRel  string
}

// Write implements io.Writer.
func (c *Committer) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// ReadFrom implements io.ReaderFrom, letting callers stream a copy source
// straight into the temp file.
func (c *Committer) ReadFrom(r io.Reader) (int64, error) {
	return io.Copy(c.tempFile, r)
}

// Commit closes the temp file and atomically renames it to the final path.
func (c *Committer) Commit() error {
	if err := c.tempFile.Close(); err != nil {
		_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("extract: close %s: %w", c.destPath, err)
	}
	if err := c.root.Rename(c.tempRel, c.destRel); err != nil {
		_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("extract: rename to %s: %w", c.destPath, err)
	}
	return nil
}

// Discard closes and removes the temp file without touching the final path.
func (c *Committer) Discard() error {
	_ = c.tempFile.Close() //nolint:errcheck // cleaning up
	return c.root.Remove(c.tempRel)
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("extract: create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
