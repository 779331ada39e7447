// Package config provides configuration management for lanwatch.
//
// Config file locations (priority order):
//  1. $LANWATCH_CONFIG
//  2. ./lanwatch.yaml
//  3. ~/.config/lanwatch/config.yaml
//  4. /etc/lanwatch/config.yaml
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScanEngine selects the sweep backend
type ScanEngine string

const (
	// EngineDial probes with ICMP ping and TCP dial fallback
	EngineDial ScanEngine = "dial"
	// EngineNmap probes with an nmap ping scan, requires the nmap binary
	EngineNmap ScanEngine = "nmap"
)

// Config is the root configuration structure
type Config struct {
	Listen   string         `yaml:"listen"`
	Database DatabaseConfig `yaml:"database"`
	Scan     ScanConfig     `yaml:"scan"`
	Monitor  MonitorConfig  `yaml:"monitor"`
}

// DatabaseConfig holds snapshot persistence settings. An empty path
// disables persistence entirely.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScanConfig tunes the subnet sweep
type ScanConfig struct {
	Engine         ScanEngine `yaml:"engine"`
	TimeoutSeconds int        `yaml:"timeout_seconds"`
	MaxConcurrent  int        `yaml:"max_concurrent"`
}

// MonitorConfig tunes the liveness reconciler
type MonitorConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	MaxConcurrent   int `yaml:"max_concurrent"`
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Scan.Engine == "" {
		c.Scan.Engine = EngineDial
	}
	if c.Scan.TimeoutSeconds <= 0 {
		c.Scan.TimeoutSeconds = 1
	}
	if c.Scan.MaxConcurrent <= 0 {
		c.Scan.MaxConcurrent = 64
	}
	if c.Monitor.IntervalSeconds <= 0 {
		c.Monitor.IntervalSeconds = 30
	}
	if c.Monitor.MaxConcurrent <= 0 {
		c.Monitor.MaxConcurrent = 16
	}
}
