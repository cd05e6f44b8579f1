package ignore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	junk := []string{".DS_Store", "._.DS_Store", "Thumbs.db", "desktop.ini", "._resource_fork", "._x"}
	for _, name := range junk {
		require.True(t, Match(name), name)
	}

	kept := []string{"a.txt", "DS_Store", "thumbs.db", ".gitignore", "style.css.br"}
	for _, name := range kept {
		require.False(t, Match(name), name)
	}
}
