// Package config provides configuration management for the protocol
// assistant.
//
// Config file locations (priority order):
//  1. $MESSPROTOKOLL_CONFIG
//  2. ./messprotokoll.yaml
//  3. ~/.config/messprotokoll/config.yaml
//  4. /etc/messprotokoll/config.yaml
//
// Individual values can additionally be overridden through environment
// variables, which wins over the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Listen   string         `yaml:"listen" env:"MESSPROTOKOLL_LISTEN"`
	Database DatabaseConfig `yaml:"database"`
	Data     DataConfig     `yaml:"data"`
	Sheet    SheetConfig    `yaml:"sheet"`
}

// DatabaseConfig locates the protocol store.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"MESSPROTOKOLL_DB"`
}

// DataConfig locates the side-car data directory holding tolerances.json.
type DataConfig struct {
	Dir string `yaml:"dir" env:"MESSPROTOKOLL_DATA_DIR"`
}

// SheetConfig locates the spreadsheet template, the cell-mapping file and
// the export directory.
type SheetConfig struct {
	Template  string `yaml:"template" env:"MESSPROTOKOLL_TEMPLATE"`
	CellMap   string `yaml:"cell_map" env:"MESSPROTOKOLL_CELLMAP"`
	ExportDir string `yaml:"export_dir" env:"MESSPROTOKOLL_EXPORT_DIR"`
}

// Load finds and loads the config file, or returns defaults if none found.
// Environment overrides are applied either way.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		if err := env.Parse(cfg); err != nil {
			return nil, "", fmt.Errorf("apply env overrides: %w", err)
		}
		return cfg, "", nil
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

	if err := env.Parse(&cfg); err != nil {
		return nil, path, fmt.Errorf("apply env overrides: %w", err)
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{Version: 1}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Listen == "" {
		c.Listen = ":3000"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./messprotokoll.db"
	}
	if c.Data.Dir == "" {
		c.Data.Dir = "./data"
	}
	if c.Sheet.Template == "" {
		c.Sheet.Template = "./data/template.xlsx"
	}
	if c.Sheet.CellMap == "" {
		c.Sheet.CellMap = "./data/cellmap.yaml"
	}
	if c.Sheet.ExportDir == "" {
		c.Sheet.ExportDir = "."
	}
}

// FindConfigPath returns the first existing config file location, or empty
// when none exists.
func FindConfigPath() string {
	if path := os.Getenv("MESSPROTOKOLL_CONFIG"); path != "" {
		return path
	}

	candidates := []string{"./messprotokoll.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "messprotokoll", "config.yaml"))
	}
	candidates = append(candidates, "/etc/messprotokoll/config.yaml")

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
