package file

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountingReaderTracksBytesRead(t *testing.T) {
	cr := &CountingReader{R: bytes.NewReader([]byte("hello world"))}
	data, err := io.ReadAll(cr)
	require.NoError(t, err)
	require.EqualValues(t, len(data), cr.N)
}

func TestCountingWriterTracksBytesWritten(t *testing.T) {
	var buf bytes.Buffer
	cw := &CountingWriter{W: &buf}
	n, err := cw.Write([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	n2, err := cw.Write([]byte("defgh"))
	require.NoError(t, err)
	require.Equal(t, 5, n2)
	require.EqualValues(t, 8, cw.N)
}

func TestCountingWriterOverflow(t *testing.T) {
	var buf bytes.Buffer
	cw := &CountingWriter{W: &buf, N: math.MaxUint64}
	_, err := cw.Write([]byte("x"))
	require.ErrorIs(t, err, ErrOverflow)
}
