// Package httpserve implements the archive's content-negotiation contract
// (spec.md §6): given a folder/filename lookup key, it decides whether to
// serve the stored Brotli bytes as-is or decompress them, infers a
// Content-Type from the file extension, and attaches the COOP/COEP headers
// that preserve cross-origin isolation for clients that need it. The HTTP
// server, routing, and auth around this handler are out of scope
// (spec.md §1); this package only implements the negotiation itself plus a
// thin net/http adapter.
package httpserve

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/packfile/packfile/core"
	"github.com/packfile/packfile/core/internal/wire"
)

// Reader is the subset of *core.Reader this package depends on, so tests
// can substitute a fake without opening a real archive.
type Reader interface {
	ReadEntry(folder, filename string, keepCompressed bool) (*core.Handle, error)
}

// Handler serves archive entries over HTTP using the content-negotiation
// contract from spec.md §6. The zero value is not usable; construct with
// NewHandler.
type Handler struct {
	archive Reader
}

// NewHandler returns a Handler backed by archive. The archive is treated as
// process-wide, read-only state: callers typically open it once at startup
// and never mutate it afterward (spec.md §5, "shared resources").
func NewHandler(archive Reader) *Handler {
	return &Handler{archive: archive}
}

// ServeEntry writes the archive entry named "folder/filename" to w,
// applying Accept-Encoding negotiation, Content-Type inference, and the
// COOP/COEP headers. It reports whether an entry was found so callers can
// fall through to their own 404 handling.
func (h *Handler) ServeEntry(w http.ResponseWriter, r *http.Request, folder, filename string) bool {
	acceptsBrotli := acceptsBrotli(r.Header.Get("Accept-Encoding"))
	useBrotli := wire.IsPrecompressed(filename) || acceptsBrotli

	handle, err := h.archive.ReadEntry(folder, filename, useBrotli)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false
		}
		http.Error(w, "internal error reading archive", http.StatusInternalServerError)
		return true
	}

	header := w.Header()
	header.Set("Cross-Origin-Opener-Policy", "same-origin")
	header.Set("Cross-Origin-Embedder-Policy", "require-corp")
	header.Set("Content-Type", contentType(filename))
	if useBrotli {
		header.Set("Content-Encoding", "br")
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(handle.Bytes()) //nolint:errcheck // client disconnects are not actionable here
	return true
}

// ServeHTTP implements http.Handler: the request path "/<folder>/<filename>"
// is split on the last slash into a lookup key and served via ServeEntry.
// Requests that don't resolve to an archive entry get a plain 404.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	folder, filename := splitPath(r.URL.Path)
	if filename == "" || !h.ServeEntry(w, r, folder, filename) {
		http.NotFound(w, r)
	}
}

// splitPath turns a request path into (folder, filename), the same
// path.Dir/path.Base key shape the random-access reader indexes entries
// under (the root folder is ".").
func splitPath(p string) (folder, filename string) {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "", ""
	}
	return path.Dir(p), path.Base(p)
}

// acceptsBrotli reports whether an Accept-Encoding header value names br
// among its (possibly weighted, comma-separated) codings.
func acceptsBrotli(acceptEncoding string) bool {
	for _, coding := range strings.Split(acceptEncoding, ",") {
		coding = strings.TrimSpace(coding)
		if i := strings.IndexByte(coding, ';'); i >= 0 {
			coding = coding[:i]
		}
		if strings.EqualFold(coding, "br") {
			return true
		}
	}
	return false
}

// contentType infers a Content-Type from filename's extension, stripping
// one trailing ".br" first so a precompressed file reports the type of the
// content it carries rather than "application/octet-stream" (spec.md §6).
func contentType(filename string) string {
	name := strings.ToLower(filename)
	name = strings.TrimSuffix(name, ".br")

	switch {
	case strings.HasSuffix(name, ".wasm"):
		return "application/wasm"
	case strings.HasSuffix(name, ".js"):
		return "application/javascript"
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	case strings.HasSuffix(name, ".html"):
		return "text/html"
	case strings.HasSuffix(name, ".css"):
		return "text/css"
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	case strings.HasSuffix(name, ".jpg"), strings.HasSuffix(name, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(name, ".gif"):
		return "image/gif"
	case strings.HasSuffix(name, ".svg"):
		return "image/svg+xml"
	case strings.HasSuffix(name, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(name, ".wav"):
		return "audio/wav"
	case strings.HasSuffix(name, ".ogg"):
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
