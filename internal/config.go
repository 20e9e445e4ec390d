package internal

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape. Unset fields leave
// the CLI defaults alone.
type FileConfig struct {
	Mmap            *string `yaml:"mmap"`
	MmapThreshold   *int64  `yaml:"mmap_threshold"`
	BufferSize      *int    `yaml:"buffer_size"`
	Threads         *int    `yaml:"threads"`
	LineNumbers     *bool   `yaml:"line_numbers"`
	Timeout         *string `yaml:"timeout"`
	SaveMatchesFile *string `yaml:"save_matches_file"`
	LogLevel        *string `yaml:"log_level"`
}

// LoadConfig reads a YAML config file from the provided path.
func LoadConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Apply copies the set fields of cfg into opts, skipping those for which
// isSet reports an explicit command line flag.
func (cfg FileConfig) Apply(opts *RunOptions, isSet func(flag string) bool) error {
	if cfg.Mmap != nil && !isSet("mmap") {
		p, err := ParseMmapPolicy(*cfg.Mmap)
		if err != nil {
			return err
		}
		opts.Engine.Mmap = p
	}
	if cfg.MmapThreshold != nil && !isSet("mmap-threshold") {
		opts.Engine.MmapThreshold = *cfg.MmapThreshold
	}
	if cfg.BufferSize != nil && !isSet("buffer-size") {
		opts.Engine.BufferSize = *cfg.BufferSize
	}
	if cfg.Threads != nil && !isSet("threads") {
		opts.Threads = *cfg.Threads
	}
	if cfg.LineNumbers != nil && !isSet("line-number") {
		opts.LineNumbers = *cfg.LineNumbers
	}
	if cfg.Timeout != nil && !isSet("timeout") {
		d, err := time.ParseDuration(*cfg.Timeout)
		if err != nil {
			return err
		}
		opts.Timeout = d
	}
	if cfg.SaveMatchesFile != nil && !isSet("save-matches-file") {
		opts.SaveMatchesFile = *cfg.SaveMatchesFile
	}
	return nil
}
