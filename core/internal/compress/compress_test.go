package compress

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/packfile/packfile/core/internal/brotlic"
)

func writeTask(t *testing.T, dir, folder, filename string, data []byte) Task {
	t.Helper()
	abs := filepath.Join(dir, filename)
	require.NoError(t, os.WriteFile(abs, data, 0o644))
	return Task{Folder: folder, Filename: filename, AbsPath: abs}
}

func TestRunCompressesAndPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	tasks := []Task{
		writeTask(t, dir, "docs", "a.txt", []byte("hello hello hello hello hello")),
		writeTask(t, dir, "docs", "b.txt", []byte("world world world world world")),
		writeTask(t, dir, "docs", "c.txt", []byte("packfile packfile packfile")),
	}

	var done int64
	results, err := Run(context.Background(), tasks, 2, func(Task) { atomic.AddInt64(&done, 1) })
	require.NoError(t, err)
	require.Len(t, results, len(tasks))
	require.EqualValues(t, len(tasks), atomic.LoadInt64(&done))

	for i, task := range tasks {
		require.Equal(t, task, results[i].Task)
		require.False(t, results[i].Precompressed)

		original, err := os.ReadFile(task.AbsPath)
		require.NoError(t, err)
		decompressed, err := brotlic.Decompress(results[i].Payload)
		require.NoError(t, err)
		require.Equal(t, original, decompressed)
	}
}

func TestRunPassesThroughPrecompressedFiles(t *testing.T) {
	dir := t.TempDir()
	raw := []byte("already-brotli-pretend-bytes")
	task := writeTask(t, dir, "assets", "logo.png.br", raw)

	results, err := Run(context.Background(), []Task{task}, 0, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Precompressed)
	require.Equal(t, raw, results[0].Payload)
}

func TestRunEmptyTasksReturnsNil(t *testing.T) {
	results, err := Run(context.Background(), nil, 4, nil)
	require.NoError(t, err)
	require.Nil(t, results)
}

func TestRunPropagatesReadError(t *testing.T) {
	task := Task{Folder: "docs", Filename: "missing.txt", AbsPath: filepath.Join(t.TempDir(), "missing.txt")}

	_, err := Run(context.Background(), []Task{task}, 1, nil)
	require.Error(t, err)
}
