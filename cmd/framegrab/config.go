package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/farcloser/framegrab"
)

// BatchConfig is the on-disk shape of a batch run: a shared set of run
// parameters applied to every input file. Loaded with viper the way
// jmylchreest-tvarr's config layer loads its own YAML settings.
type BatchConfig struct {
	Mode      string   `mapstructure:"mode"`
	Count     int      `mapstructure:"count"`
	Format    string   `mapstructure:"format"`
	OutputDir string   `mapstructure:"output_dir"`
	Inputs    []string `mapstructure:"inputs"`
	Parallel  int      `mapstructure:"parallel"`
}

// loadBatchConfig reads a YAML batch config file from path.
func loadBatchConfig(path string) (*BatchConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading batch config %s: %w", path, err)
	}

	var cfg BatchConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing batch config %s: %w", path, err)
	}

	return &cfg, nil
}

// runParams converts the on-disk config shape into the framegrab runtime
// parameters a Context.Run call needs.
func (c *BatchConfig) runParams() (framegrab.RunParams, error) {
	mode, err := parseMode(c.Mode)
	if err != nil {
		return framegrab.RunParams{}, err
	}

	format, err := parseFormat(c.Format)
	if err != nil {
		return framegrab.RunParams{}, err
	}

	return framegrab.RunParams{
		Mode:      mode,
		Count:     c.Count,
		Format:    format,
		OutputDir: c.OutputDir,
	}, nil
}

func parseMode(s string) (framegrab.ExtractionMode, error) {
	switch s {
	case "", "unfiltered":
		return framegrab.ModeUnfiltered, nil
	case "ordered":
		return framegrab.ModeOrdered, nil
	case "distributed":
		return framegrab.ModeDistributed, nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownMode, s)
	}
}

func parseFormat(s string) (framegrab.OutputFormat, error) {
	switch s {
	case "", "png":
		return framegrab.FormatPNG, nil
	case "jpeg", "jpg":
		return framegrab.FormatJPEG, nil
	case "bmp":
		return framegrab.FormatBMP, nil
	case "tga":
		return framegrab.FormatTGA, nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownFormat, s)
	}
}
