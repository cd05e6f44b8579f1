// Package varint encodes and decodes unsigned integers as base-128
// little-endian varints, the integer encoding used throughout the archive
// container format.
package varint

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrTruncated is returned when a varint is cut off before a terminating byte.
var ErrTruncated = errors.New("varint: truncated")

// MaxLen is the maximum number of bytes a 64-bit varint can occupy.
const MaxLen = binary.MaxVarintLen64

// Append encodes v and appends it to dst, returning the extended slice.
func Append(dst []byte, v uint64) []byte {
	var buf [MaxLen]byte
	n := binary.PutUvarint(buf[:], v)
	return append(dst, buf[:n]...)
}

// Decode reads a varint from the front of b, returning the value and the
// number of bytes consumed. It fails if b ends before a terminating byte.
func Decode(b []byte) (uint64, int, error) {
	v, n := binary.Uvarint(b)
	if n == 0 {
		return 0, 0, ErrTruncated
	}
	if n < 0 {
		return 0, 0, errors.New("varint: overflows 64 bits")
	}
	return v, n, nil
}

// Read decodes a single varint from r, one byte at a time.
func Read(r io.ByteReader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrTruncated
		}
		return 0, err
	}
	return v, nil
}

// Len returns the number of bytes Append would write for v.
func Len(v uint64) int {
	var buf [MaxLen]byte
	return binary.PutUvarint(buf[:], v)
}
