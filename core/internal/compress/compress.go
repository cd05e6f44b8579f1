// Package compress distributes per-file Brotli compression across a worker
// pool, preserving input order in the returned results while running the
// actual compression unordered.
package compress

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/packfile/packfile/core/internal/brotlic"
	"github.com/packfile/packfile/core/internal/wire"
)

// Task is one file queued for compression.
type Task struct {
	Folder   string
	Filename string
	AbsPath  string
}

// Result is the outcome of compressing (or passing through) one Task.
type Result struct {
	Task
	Payload       []byte // compressed bytes, or raw bytes when Precompressed
	Precompressed bool   // true when Filename ends ".br": payload stored verbatim
}

// Run compresses every task using up to workers goroutines (0 = GOMAXPROCS),
// returning one Result per Task in the same order as tasks. If onDone is
// non-nil it is called once per completed task, from whichever goroutine
// finished it; it must be safe for concurrent use.
//
// Workers share no mutable state: each consumes one Task and returns its
// compressed (or verbatim) bytes. Result collection is unordered; this
// function reorders by the caller's original slice position before
// returning so callers never need to re-sort.
func Run(ctx context.Context, tasks []Task, workers int, onDone func(Task)) ([]Result, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(tasks))
	sem := semaphore.NewWeighted(int64(workers))
	eg, ctx := errgroup.WithContext(ctx)

	for i, task := range tasks {
		i, task := i, task
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		eg.Go(func() error {
			defer sem.Release(1)
			res, err := compressOne(task)
			if err != nil {
				return err
			}
			results[i] = res
			if onDone != nil {
				onDone(task)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// compressOne reads a file and Brotli-compresses it, unless its filename
// declares the bytes are already a Brotli stream.
func compressOne(task Task) (Result, error) {
	data, err := os.ReadFile(task.AbsPath) //nolint:gosec // task.AbsPath comes from the pack-time directory walk
	if err != nil {
		return Result{}, fmt.Errorf("compress: read %s: %w", task.AbsPath, err)
	}

	if wire.IsPrecompressed(task.Filename) {
		return Result{Task: task, Payload: data, Precompressed: true}, nil
	}

	compressed, err := brotlic.Compress(data)
	if err != nil {
		return Result{}, fmt.Errorf("compress: %s: %w", task.AbsPath, err)
	}
	return Result{Task: task, Payload: compressed}, nil
}
