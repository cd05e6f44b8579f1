package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/packfile/packfile/core"
)

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "append a directory's folders to an existing archive, without rescanning it for dedup",
		ArgsUsage: "<archive> <folder>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "parallel compression workers (0 = GOMAXPROCS)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: packfile add <archive> <folder>", 2)
			}
			archivePath, srcDir := c.Args().Get(0), c.Args().Get(1)

			bar := newBarReporter()
			stats, err := core.Add(c.Context, archivePath, srcDir,
				core.WithWorkers(c.Int("workers")),
				core.WithLogger(loggerFor(c)),
				core.WithProgress(bar.report),
			)
			bar.Wait()
			if err != nil {
				return fmt.Errorf("add %s to %s: %w", srcDir, archivePath, err)
			}

			printSummary(stats)
			return nil
		},
	}
}
