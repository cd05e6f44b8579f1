package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/packfile/packfile/core"
)

func unpackCommand() *cli.Command {
	return &cli.Command{
		Name:      "unpack",
		Usage:     "extract an archive to a directory",
		ArgsUsage: "<archive> <output_dir>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: packfile unpack <archive> <output_dir>", 2)
			}
			archivePath, destDir := c.Args().Get(0), c.Args().Get(1)

			bar := newBarReporter()
			stats, err := core.Unpack(archivePath, destDir,
				core.WithLogger(loggerFor(c)),
				core.WithProgress(bar.report),
			)
			bar.Wait()
			if err != nil {
				return fmt.Errorf("unpack %s: %w", archivePath, err)
			}

			printSummary(stats)
			return nil
		},
	}
}
