package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/packfile/packfile/core"
)

func packCommand() *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "pack a directory into a new archive",
		ArgsUsage: "<folder> <output>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-dedup",
				Usage: "disable folder/file deduplication",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "parallel compression workers (0 = GOMAXPROCS)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: packfile pack <folder> <output>", 2)
			}
			srcDir, archivePath := c.Args().Get(0), c.Args().Get(1)

			bar := newBarReporter()
			stats, err := core.Pack(c.Context, srcDir, archivePath,
				core.WithDedup(!c.Bool("no-dedup")),
				core.WithWorkers(c.Int("workers")),
				core.WithLogger(loggerFor(c)),
				core.WithProgress(bar.report),
			)
			bar.Wait()
			if err != nil {
				return fmt.Errorf("pack %s: %w", srcDir, err)
			}

			printSummary(stats)
			return nil
		},
	}
}
