package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
)

// DefaultPath is looked up in the working directory when --config is unset.
const DefaultPath = "vesperiatools.json"

// Config holds settings shared by the subcommands.
type Config struct {
	Platform      string `json:"platform"`
	OutputDir     string `json:"output_dir"`
	DeepExtract   bool   `json:"deep_extract"`
	Workers       int    `json:"workers"`
	PreviewFormat string `json:"preview_format"`
	PreviewSize   int    `json:"preview_size"`
}

// Default returns the settings used when nothing else is given.
func Default() Config {
	return Config{
		Platform:  "pc",
		OutputDir: "out",
		Workers:   runtime.NumCPU(),
	}
}

// Load reads a JSON config file.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOptional loads path, or DefaultPath when path is empty. A missing
// default file is not an error.
func LoadOptional(path string) (Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg, err := Load(DefaultPath)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Platform      string
	OutputDir     string
	Deep          bool
	Workers       int
	PreviewFormat string
	PreviewSize   int
}

// Resolve applies flags over the file values, then fills what is still
// empty from Default.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.Platform != "" {
		c.Platform = flags.Platform
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Deep {
		c.DeepExtract = true
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.PreviewFormat != "" {
		c.PreviewFormat = flags.PreviewFormat
	}
	if flags.PreviewSize > 0 {
		c.PreviewSize = flags.PreviewSize
	}

	def := Default()
	if c.Platform == "" {
		c.Platform = def.Platform
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
}
