// Package stream implements the pull-based streaming decoder: it turns an
// arbitrary io.Reader of archive bytes into a sequence of Events, buffering
// only what is needed to recognize the next record (spec.md §4.8). It is
// the path used when an archive arrives as a byte stream, e.g. an HTTP
// response body, rather than as a file already on disk.
package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/packfile/packfile/core"
	"github.com/packfile/packfile/core/internal/brotlic"
	"github.com/packfile/packfile/core/internal/sizing"
	"github.com/packfile/packfile/core/internal/varint"
	"github.com/packfile/packfile/core/internal/wire"
)

// Kind identifies which of the three record shapes an Event carries.
type Kind int

const (
	// EventNormalFile is one Content file inside a Normal folder.
	EventNormalFile Kind = iota
	// EventFileRef is a file inside a Normal folder whose bytes live in an earlier file;
	// Payload is nil and SrcFolder/SrcFilename name the source.
	EventFileRef
	// EventFolderCopy names an earlier Normal folder whose files should all be
	// materialized under Folder.
	EventFolderCopy
)

// Event is one decoded record. Exactly one of the field groups below is
// populated, selected by Kind:
//
//	EventNormalFile: Folder, Filename, FilesTotal, FileIndex, Payload
//	EventFileRef:    Folder, Filename, FilesTotal, FileIndex, SrcFolder, SrcFilename
//	EventFolderCopy: Folder, SrcFolder
//
// Payload, when non-nil, must be read to completion (or the Decoder will
// drain it automatically) before the next call to Next.
type Event struct {
	Kind        Kind
	Folder      string
	Filename    string
	FilesTotal  int
	FileIndex   int
	SrcFolder   string
	SrcFilename string
	Payload     io.Reader
}

// Decoder pulls Events out of r one at a time. It is single-threaded: a
// Decoder must not be used from more than one goroutine concurrently, and
// its Events (including their Payload) are only valid until the next call
// to Next.
type Decoder struct {
	br *bufio.Reader

	pending io.Reader // unread tail of the previous Payload, if any

	inFolder   bool
	folder     string
	filesTotal int
	fileIndex  int
}

// NewDecoder returns a Decoder that reads archive bytes from r. r may
// deliver bytes in chunks of any size, including one byte at a time;
// Next buffers only as much as the next record requires.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{br: bufio.NewReader(r)}
}

// Next returns the next Event, or io.EOF once the archive has been fully
// consumed at a folder boundary. A stream that ends mid-record is reported
// as core.ErrTruncated, not io.EOF.
func (d *Decoder) Next() (*Event, error) {
	if err := d.drainPending(); err != nil {
		return nil, err
	}

	for {
		if d.inFolder && d.fileIndex < d.filesTotal {
			return d.nextFile()
		}
		d.inFolder = false

		tag, err := d.br.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrTruncated, err)
		}

		folder, err := d.readString()
		if err != nil {
			return nil, err
		}

		switch tag {
		case wire.FolderCopy:
			srcFolder, err := d.readString()
			if err != nil {
				return nil, err
			}
			return &Event{Kind: EventFolderCopy, Folder: folder, SrcFolder: srcFolder}, nil

		case wire.FolderNormal:
			n, err := d.readVarint()
			if err != nil {
				return nil, err
			}
			nInt, err := sizing.ToInt(n, core.ErrInvalidArchive)
			if err != nil {
				return nil, fmt.Errorf("packfile: folder %s: %w", folder, err)
			}
			d.inFolder = true
			d.folder = folder
			d.filesTotal = nInt
			d.fileIndex = 0
			if d.filesTotal == 0 {
				d.inFolder = false
				continue
			}
			return d.nextFile()

		default:
			return nil, fmt.Errorf("%w: unknown folder tag 0x%02x", core.ErrInvalidArchive, tag)
		}
	}
}

// nextFile reads one FileRecord from the folder currently being iterated.
func (d *Decoder) nextFile() (*Event, error) {
	filename, err := d.readString()
	if err != nil {
		return nil, err
	}
	bodyTag, err := d.br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrTruncated, err)
	}

	ev := &Event{Folder: d.folder, Filename: filename, FilesTotal: d.filesTotal, FileIndex: d.fileIndex}
	d.fileIndex++

	switch bodyTag {
	case wire.FileReference:
		ev.Kind = EventFileRef
		ev.SrcFolder, err = d.readString()
		if err != nil {
			return nil, err
		}
		ev.SrcFilename, err = d.readString()
		if err != nil {
			return nil, err
		}
		return ev, nil

	case wire.FileContent:
		n, err := d.readVarint()
		if err != nil {
			return nil, err
		}
		nInt, err := sizing.ToInt(n, core.ErrInvalidArchive)
		if err != nil {
			return nil, fmt.Errorf("packfile: %s/%s: %w", d.folder, filename, err)
		}
		raw := make([]byte, nInt)
		if _, err := io.ReadFull(d.br, raw); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrTruncated, err)
		}

		ev.Kind = EventNormalFile
		if wire.IsPrecompressed(filename) {
			ev.Payload = newPayload(raw)
		} else {
			decoded, err := brotlic.Decompress(raw)
			if err != nil {
				return nil, fmt.Errorf("packfile: %s/%s: %w", d.folder, filename, core.ErrDecompression)
			}
			ev.Payload = newPayload(decoded)
		}
		d.pending = ev.Payload
		return ev, nil

	default:
		return nil, fmt.Errorf("%w: unknown file tag 0x%02x", core.ErrInvalidArchive, bodyTag)
	}
}

// drainPending discards whatever the caller left unread in the previous
// Event's Payload, mirroring archive/tar.Reader's auto-advance behavior.
func (d *Decoder) drainPending() error {
	if d.pending == nil {
		return nil
	}
	_, err := io.Copy(io.Discard, d.pending)
	d.pending = nil
	return err
}

func (d *Decoder) readString() (string, error) {
	n, err := d.readVarint()
	if err != nil {
		return "", err
	}
	nInt, err := sizing.ToInt(n, core.ErrInvalidArchive)
	if err != nil {
		return "", fmt.Errorf("packfile: name length: %w", err)
	}
	buf := make([]byte, nInt)
	if _, err := io.ReadFull(d.br, buf); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrTruncated, err)
	}
	return string(buf), nil
}

func (d *Decoder) readVarint() (uint64, error) {
	v, err := varint.Read(d.br)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrTruncated, err)
	}
	return v, nil
}

// newPayload wraps a fully decoded blob as the lazy subsource the spec
// describes; in this implementation the bytes are already in memory (a
// single Brotli frame decodes in one shot), so Payload is just a reader
// over them.
func newPayload(data []byte) io.Reader {
	return &payload{data: data}
}

type payload struct {
	data []byte
	pos  int
}

func (p *payload) Read(buf []byte) (int, error) {
	if p.pos >= len(p.data) {
		return 0, io.EOF
	}
	n := copy(buf, p.data[p.pos:])
	p.pos += n
	return n, nil
}
