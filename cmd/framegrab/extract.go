package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/framegrab"
	"github.com/farcloser/framegrab/decoder"
	"github.com/farcloser/framegrab/detect"
	"github.com/farcloser/framegrab/output"
)

var (
	errInvalidArgCount = errors.New("expected exactly one argument: file path")
	errUnknownMode     = errors.New("unknown extraction mode")
	errUnknownFormat   = errors.New("unknown output format")
	errNotAnMP4        = errors.New("input is not an mp4 container")
	errNoAVCVideo      = errors.New("input has no AVC video track")
)

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract IDR keyframe thumbnails from an MP4/H.264 file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Value: "unfiltered",
				Usage: "idr selection mode: unfiltered, ordered, distributed",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Value:   0,
				Usage:   "number of pictures to keep (0 = all, Unfiltered ignores this)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "png",
				Usage:   "output image format: png, jpeg, bmp, tga",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   ".",
				Usage:   "output directory",
			},
		},
		Action: runExtract,
	}
}

func runExtract(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
	}

	path := cmd.Args().First()

	mode, err := parseMode(cmd.String("mode"))
	if err != nil {
		return err
	}

	format, err := parseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	params := framegrab.RunParams{
		Mode:      mode,
		Count:     int(cmd.Int("count")),
		Format:    format,
		OutputDir: cmd.String("output"),
	}

	status, err := extractOne(path, params)
	if err != nil {
		return err
	}

	if status != framegrab.ExitSuccess {
		os.Exit(1)
	}

	return nil
}

// extractOne runs one extraction and logs its summary counters.
func extractOne(path string, params framegrab.RunParams) (framegrab.ExitStatus, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified input files
	if err != nil {
		return framegrab.ExitFailure, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	probe, err := detect.Probe(file)
	if err != nil {
		return framegrab.ExitFailure, fmt.Errorf("probing %s: %w", path, err)
	}

	if !probe.IsMP4 {
		return framegrab.ExitFailure, fmt.Errorf("%s: %w", path, errNotAnMP4)
	}

	if !probe.HasVideo || !probe.IsAVC {
		return framegrab.ExitFailure, fmt.Errorf("%s: %w", path, errNoAVCVideo)
	}

	ctx := decoder.New(newSliceDecoder(), output.NewWriter())

	result, err := ctx.Run(file, params)
	if err != nil {
		return framegrab.ExitFailure, fmt.Errorf("extracting %s: %w", path, err)
	}

	log.Info().
		Str("file", path).
		Int("frames", result.Stats.FrameCounter).
		Int("idr", result.Stats.IDRCounter).
		Int("errors", result.Stats.ErrorCounter).
		Int("written", len(result.WrittenPaths)).
		Msg("extraction complete")

	return result.Status, nil
}
