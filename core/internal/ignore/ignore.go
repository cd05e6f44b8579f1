// Package ignore filters junk filenames out of the pack-time walk, before
// hashing and before compression.
package ignore

import "strings"

var exact = map[string]struct{}{
	".DS_Store":  {},
	"._.DS_Store": {},
	"Thumbs.db":  {},
	"desktop.ini": {},
}

// Match reports whether name should be excluded from the archive.
func Match(name string) bool {
	if _, ok := exact[name]; ok {
		return true
	}
	return strings.HasPrefix(name, "._")
}
