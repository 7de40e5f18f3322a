package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/framegrab"
)

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Extract thumbnails from every file listed in a YAML batch config",
		ArgsUsage: "<config.yaml>",
		Action:    runBatch,
	}
}

func runBatch(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
	}

	cfg, err := loadBatchConfig(cmd.Args().First())
	if err != nil {
		return err
	}

	params, err := cfg.runParams()
	if err != nil {
		return err
	}

	parallel := cfg.Parallel
	if parallel <= 0 {
		parallel = 1
	}

	return runBatchFiles(cfg.Inputs, params, parallel)
}

// runBatchFiles fans extraction out across a bounded worker pool, one
// goroutine per concurrent file: each worker owns its own file handle and
// decoder context, so no state is shared across inputs.
func runBatchFiles(inputs []string, params framegrab.RunParams, parallel int) error {
	sem := make(chan struct{}, parallel)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []error
	)

	for _, path := range inputs {
		wg.Add(1)

		go func(path string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			filePaths := params
			filePaths.OutputDir = filepath.Join(params.OutputDir, filepath.Base(path))

			status, err := extractOne(path, filePaths)
			if err != nil {
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()

				return
			}

			log.Info().Str("file", path).Str("status", statusString(status)).Msg("batch entry complete")
		}(path)
	}

	wg.Wait()

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d batch entries failed: %w", len(failures), len(inputs), failures[0])
	}

	return nil
}

func statusString(s framegrab.ExitStatus) string {
	if s == framegrab.ExitSuccess {
		return "success"
	}

	return "failure"
}
