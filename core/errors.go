package core

import "errors"

// Sentinel errors for the archive format. Propagation policy (spec.md §7):
// ErrBrokenReference is a warning during bulk/streaming unpack (the entry is
// skipped, extraction continues) and a not-found result from the
// random-access reader. All other errors abort the current operation.
var (
	// ErrTruncated indicates a stream or file ended mid-record.
	ErrTruncated = errors.New("packfile: truncated archive")

	// ErrDecompression indicates a Brotli decode failure on a Content payload.
	ErrDecompression = errors.New("packfile: decompression failed")

	// ErrBrokenReference indicates a Reference or Copy points at an unknown
	// earlier record.
	ErrBrokenReference = errors.New("packfile: broken reference")

	// ErrInvalidArchive indicates a structural problem with the archive that
	// is not a simple truncation (e.g. an unknown tag byte).
	ErrInvalidArchive = errors.New("packfile: invalid archive")

	// ErrNotFound is returned by the random-access reader when a path does
	// not resolve to a readable entry (including entries whose reference
	// chain is broken).
	ErrNotFound = errors.New("packfile: entry not found")
)
