// Package core implements the packed content archive format: a single flat
// binary container holding a folder tree's files, each Brotli-compressed,
// with two-level deduplication across identical folders and identical file
// contents.
//
// # Quick Start
//
// Pack a directory into an archive:
//
//	stats, err := core.Pack(ctx, "./src", "out.pack")
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d files, %d bytes stored\n", stats.TotalFiles, stats.StoredBytes)
//
// Unpack an archive back onto disk:
//
//	stats, err := core.Unpack("out.pack", "./dest")
//
// Append new folders to an existing archive without rescanning it:
//
//	stats, err := core.Add(ctx, "out.pack", "./more-src")
//
// # Random access
//
// [Open] parses an archive once into an in-memory index and then serves
// individual files by seek+read, without materializing the rest of the
// archive:
//
//	r, err := core.Open("out.pack")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	h, err := r.ReadEntry("images", "logo.png", false)
//
// Reader also implements [io/fs.FS], [io/fs.StatFS] and [io/fs.ReadFileFS],
// so it can be used anywhere a filesystem is expected:
//
//	data, err := fs.ReadFile(r, "images/logo.png")
//
// # Options
//
// Pack, Add and Unpack accept [PackOption] values: [WithDedup] disables
// folder/file deduplication, [WithWorkers] bounds the compression worker
// pool, [WithLogger] attaches structured logging, and [WithProgress]
// subscribes to per-stage progress events.
package core
