package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/packfile/packfile/core"
)

// barReporter renders core.ProgressEvents as a single rewriting mpb status
// line per stage, switching bars as the operation moves from one
// core.ProgressStage to the next.
type barReporter struct {
	progress *mpb.Progress
	bar      *mpb.Bar
	stage    core.ProgressStage
	total    int64
	started  bool
}

func newBarReporter() *barReporter {
	return &barReporter{progress: mpb.New(mpb.WithOutput(os.Stderr))}
}

func (r *barReporter) report(ev core.ProgressEvent) {
	if !r.started || ev.Stage != r.stage {
		r.startStage(ev)
	}
	if r.bar == nil {
		return
	}
	if ev.FilesTotal > 0 {
		r.bar.SetCurrent(int64(ev.FilesDone))
	}
}

func (r *barReporter) startStage(ev core.ProgressEvent) {
	if r.bar != nil {
		r.bar.SetCurrent(r.total)
	}

	r.started = true
	r.stage = ev.Stage
	r.total = int64(ev.FilesTotal)
	if r.total <= 0 {
		r.total = 1
	}
	r.bar = r.progress.AddBar(r.total,
		mpb.PrependDecorators(decor.Name(ev.Stage.String(), decor.WC{W: 14, C: decor.DindentRight})),
		mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
	)
}

// Wait marks the final bar complete and blocks until all bars have finished
// rendering.
func (r *barReporter) Wait() {
	if r.bar != nil {
		r.bar.SetCurrent(r.total)
	}
	r.progress.Wait()
}

// printSummary renders a colored summary block: totals plus the top five
// folders by uncompressed size (spec.md §7).
func printSummary(stats *core.Stats) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	bold.Println("Summary")
	fmt.Printf("  folders:        %d (%d copy)\n", stats.TotalFolders, stats.CopyFolders)
	fmt.Printf("  files:          %d (%d references)\n", stats.TotalFiles, stats.TotalReferences)
	green.Printf("  uncompressed:   %d bytes\n", stats.UncompressedBytes)
	green.Printf("  stored:         %d bytes\n", stats.StoredBytes)

	if len(stats.Warnings) > 0 {
		yellow.Printf("  warnings:       %d\n", len(stats.Warnings))
		for _, w := range stats.Warnings {
			yellow.Printf("    - %s\n", w)
		}
	}

	top := stats.TopFolders(5)
	if len(top) == 0 {
		return
	}
	bold.Println("\nTop folders by uncompressed size")
	for _, f := range top {
		fmt.Printf("  %-40s %12d bytes (%d files)\n", f.Folder, f.UncompressedBytes, f.Files)
	}
}
