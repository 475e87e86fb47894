// Package config loads the sitecc.yaml project file: source and output
// directories plus glob patterns for files the generator should leave
// untouched.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the parsed form of sitecc.yaml.
type Config struct {
	Source string   `yaml:"source"`
	Output string   `yaml:"output"`
	Ignore []string `yaml:"ignore"`
}

// Default returns the configuration used when no sitecc.yaml is present.
func Default() *Config {
	return &Config{
		Source: ".",
		Output: "dist",
	}
}

// Load reads and parses the sitecc.yaml file at path. A missing file is not
// an error: Default() is returned instead, so a bare directory of .html
// files can be built without any configuration at all.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Source == "" {
		cfg.Source = "."
	}
	if cfg.Output == "" {
		cfg.Output = "dist"
	}
	return cfg, nil
}
