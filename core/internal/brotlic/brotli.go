// Package brotlic wraps single-shot Brotli compression and decompression
// at the quality and window settings the archive format requires.
package brotlic

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
)

// Quality and WindowBits are fixed by the archive format: quality 11,
// window bits 24, generic mode, single-shot over the whole payload.
const (
	Quality    = 11
	WindowBits = 24
)

// ErrDecompression wraps any failure from the underlying Brotli decoder.
var ErrDecompression = errors.New("brotlic: decompression failed")

var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// Compress returns the Brotli-compressed form of data.
func Compress(data []byte) ([]byte, error) {
	buf, _ := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	w := brotli.NewWriterOptions(buf, brotli.WriterOptions{Quality: Quality, LGWin: WindowBits})
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("brotlic: compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("brotlic: compress: %w", err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// Decompress returns the decompressed form of a single Brotli frame.
// Output size is unbounded; callers that need a bound should decode
// through NewReader and wrap its result in an io.LimitReader.
func Decompress(data []byte) ([]byte, error) {
	out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	return out, nil
}

// NewReader wraps r with a Brotli decoder for streaming decompression.
func NewReader(r io.Reader) io.Reader {
	return brotli.NewReader(r)
}
