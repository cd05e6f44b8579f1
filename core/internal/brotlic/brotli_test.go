package brotlic

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 200)

	compressed, err := Compress(original)
	require.NoError(t, err)
	require.Less(t, len(compressed), len(original), "repetitive input should compress smaller")

	decompressed, err := Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, original, decompressed)
}

func TestCompressEmptyInput(t *testing.T) {
	compressed, err := Compress(nil)
	require.NoError(t, err)

	decompressed, err := Decompress(compressed)
	require.NoError(t, err)
	require.Empty(t, decompressed)
}

func TestDecompressRejectsGarbage(t *testing.T) {
	_, err := Decompress([]byte("not a brotli stream"))
	require.ErrorIs(t, err, ErrDecompression)
}

func TestNewReaderStreamsDecompression(t *testing.T) {
	original := []byte("streamed through a reader instead of a byte slice")
	compressed, err := Compress(original)
	require.NoError(t, err)

	got, err := io.ReadAll(NewReader(bytes.NewReader(compressed)))
	require.NoError(t, err)
	require.Equal(t, original, got)
}
