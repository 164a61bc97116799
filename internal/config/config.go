// Package config handles configuration loading and validation for filedrop.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/filedrop/filedrop/pkg/bytesize"
)

// Config holds configuration for the filedrop server.
type Config struct {
	Listen       string `yaml:"listen"`        // HTTP listen address (default: ":7420")
	DataDir      string `yaml:"data_dir"`      // Store directory (default: <project root>/uploads)
	MaxUpload    string `yaml:"max_upload"`    // Multipart memory limit, e.g. "32MB"
	PingInterval string `yaml:"ping_interval"` // SSE keep-alive interval, e.g. "25s"
	LogLevel     string `yaml:"log_level"`     // zerolog level name (default: "info")
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads server configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":7420"
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	// Expand home directory in data dir
	if strings.HasPrefix(c.DataDir, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			c.DataDir = filepath.Join(homeDir, c.DataDir[2:])
		}
	}
	if c.MaxUpload == "" {
		c.MaxUpload = "32MB"
	}
	if c.PingInterval == "" {
		c.PingInterval = "25s"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// DefaultDataDir resolves the store directory relative to the project root.
// When the process runs from a build-output directory one level below the
// root (base name "build"), the store dir anchors to the parent, so both
// run modes see the same directory.
func DefaultDataDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "uploads"
	}
	if filepath.Base(cwd) == "build" {
		return filepath.Join(filepath.Dir(cwd), "uploads")
	}
	return filepath.Join(cwd, "uploads")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if _, err := bytesize.Parse(c.MaxUpload); err != nil {
		return fmt.Errorf("invalid max_upload: %w", err)
	}
	if d, err := time.ParseDuration(c.PingInterval); err != nil {
		return fmt.Errorf("invalid ping_interval: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("ping_interval must be positive")
	}
	return nil
}

// MaxUploadBytes returns the parsed multipart memory limit.
func (c *Config) MaxUploadBytes() int64 {
	n, err := bytesize.Parse(c.MaxUpload)
	if err != nil {
		return 32 * bytesize.MB
	}
	return n
}

// PingIntervalDuration returns the parsed SSE keep-alive interval.
func (c *Config) PingIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.PingInterval)
	if err != nil || d <= 0 {
		return 25 * time.Second
	}
	return d
}
