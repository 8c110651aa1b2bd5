// Package config holds the settings of one batch run. A Config is built from
// defaults, an optional YAML file and command-line overrides, then passed to
// the pipeline; nothing here is process-wide.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Segmenter kinds.
const (
	SegmenterCommand = "command"
	SegmenterONNX    = "onnx"
)

// Config defines the parameters for one run.
type Config struct {
	InputDir  string        `yaml:"input_dir"`
	OutputDir string        `yaml:"output_dir"`
	Segmenter Segmenter     `yaml:"segmenter"`
	Timeout   time.Duration `yaml:"timeout"` // per-image segmentation timeout, 0 = none
	Report    string        `yaml:"report"`  // run report path, empty = no report
}

// Segmenter selects and configures the background remover.
type Segmenter struct {
	Kind string `yaml:"kind"`
	// Binary is the rembg executable for the command segmenter.
	Binary string `yaml:"binary"`
	// Model is a model name ("u2net") or a path to an .onnx file.
	Model string `yaml:"model"`
	// RuntimeLibrary is the onnxruntime shared library for the onnx segmenter.
	RuntimeLibrary string `yaml:"runtime_library"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OutputDir: "./output",
		Segmenter: Segmenter{
			Kind:   SegmenterCommand,
			Binary: "rembg",
			Model:  "u2net",
		},
		Timeout: 2 * time.Minute,
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.InputDir == "" {
		return errors.New("input directory is required")
	}
	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", c.Timeout)
	}
	switch c.Segmenter.Kind {
	case SegmenterCommand:
		if c.Segmenter.Binary == "" {
			return errors.New("segmenter.binary is required for the command segmenter")
		}
	case SegmenterONNX:
		if c.Segmenter.Model == "" {
			return errors.New("segmenter.model must point to an .onnx file for the onnx segmenter")
		}
	default:
		return fmt.Errorf("unknown segmenter %q (want %q or %q)",
			c.Segmenter.Kind, SegmenterCommand, SegmenterONNX)
	}
	return nil
}
