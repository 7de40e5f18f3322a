// Package main provides the framegrab CLI for extracting IDR keyframe
// thumbnails out of MP4/H.264 video.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/framegrab/version"
)

func main() {
	ctx := context.Background()

	appl := &cli.Command{
		Name:    version.Name(),
		Usage:   "IDR keyframe thumbnail extraction cli",
		Version: version.Version() + " (" + version.Commit() + " - " + version.Date() + ")",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "INFO",
				Usage: "set log level: DEBUG, INFO, WARN, ERROR",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "log in json format instead of colorized console",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "additionally rotate logs to this file",
			},
		},
		Before: func(_ context.Context, cmd *cli.Command) (context.Context, error) {
			initLogger(cmd.String("log-level"), cmd.Bool("log-json"), cmd.String("log-file"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			extractCommand(),
			batchCommand(),
		},
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)

		os.Exit(1)
	}
}
