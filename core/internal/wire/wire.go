// Package wire defines the archive container's binary tags, shared by the
// writer, bulk unpacker, streaming decoder, and random-access reader so the
// on-wire constants live in exactly one place.
//
//	FolderRecord := 0x00 varint(flen) folder_name[flen] varint(n) FileRecord×n
//	             |  0x01 varint(flen) folder_name[flen] varint(slen) src_folder[slen]
//	FileRecord   := varint(nlen) filename[nlen] FileBody
//	FileBody     := 0x00 varint(plen) payload[plen]
//	             |  0x01 varint(sflen) src_folder[sflen] varint(sfn) src_filename[sfn]
package wire

import "strings"

// FolderRecord tags.
const (
	FolderNormal byte = 0x00
	FolderCopy   byte = 0x01
)

// FileBody tags.
const (
	FileContent   byte = 0x00
	FileReference byte = 0x01
)

// IsPrecompressed reports whether filename's extension marks its payload as
// an already-Brotli-compressed stream that must be stored, not re-compressed.
func IsPrecompressed(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".br")
}
