// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Shopify/visualization-tools/internal/errors"
	"github.com/Shopify/visualization-tools/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Tree contains tree construction settings
	Tree TreeConfig `json:"tree"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Traces contains grouped-trace settings
	Traces TracesConfig `json:"traces"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// TreeConfig contains path encoding settings
type TreeConfig struct {
	// Separator joins level values into a path
	Separator string `json:"separator"`

	// RootToken is the first segment of every path
	RootToken string `json:"root_token"`

	// RootName is the display name of the root node
	RootName string `json:"root_name"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default tree output format (dot, outline, json)
	DefaultFormat string `json:"default_format"`

	// EdgeDigits is the number of digits shown on proportion edge labels
	EdgeDigits int `json:"edge_digits"`

	// NodeShape is the DOT shape used for every node, empty for the renderer default
	NodeShape string `json:"node_shape,omitempty"`
}

// TracesConfig contains grouped-trace settings
type TracesConfig struct {
	// MaxSubplots caps the number of distinct subplot keys
	MaxSubplots int `json:"max_subplots"`

	// Columns is the default number of columns in the subplot grid
	Columns int `json:"columns"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Tree: TreeConfig{
			Separator: "->",
			RootToken: "root",
			RootName:  "Total",
		},
		Output: OutputConfig{
			DefaultFormat: "dot",
			EdgeDigits:    2,
		},
		Traces: TracesConfig{
			MaxSubplots: 20,
			Columns:     2,
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultPath returns $HOME/.visualization-tools.json
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".visualization-tools.json")
}

// Load loads configuration from a file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Config("read config", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Config("decode config "+path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks settings that would make tree construction impossible
func (c *Config) Validate() error {
	if c.Tree.Separator == "" {
		return errors.Config("tree.separator must not be empty", nil)
	}
	if c.Tree.RootToken == "" {
		return errors.Config("tree.root_token must not be empty", nil)
	}
	if c.Traces.MaxSubplots <= 0 {
		return errors.Config("traces.max_subplots must be positive", nil)
	}
	if c.Output.EdgeDigits < 0 {
		return errors.Config("output.edge_digits must not be negative", nil)
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
