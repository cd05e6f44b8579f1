package main

import (
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/packfile/packfile/core"
	"github.com/packfile/packfile/core/httpserve"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "serve an archive's entries over HTTP using the content-negotiation contract",
		ArgsUsage: "<archive>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address",
				Value: ":8080",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: packfile serve <archive> [--addr :8080]", 2)
			}
			archivePath := c.Args().Get(0)

			r, err := core.Open(archivePath)
			if err != nil {
				return fmt.Errorf("open %s: %w", archivePath, err)
			}
			defer r.Close()

			logger := loggerFor(c)
			handler := httpserve.NewHandler(r)
			addr := c.String("addr")
			logger.Info("serving archive", "archive", archivePath, "addr", addr)

			return http.ListenAndServe(addr, handler) //nolint:gosec // CLI dev server, no timeouts configured intentionally
		},
	}
}
