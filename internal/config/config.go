// Package config loads worldkg configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all worldkg settings.
type Config struct {
	// Extraction settings
	Extraction ExtractionConfig `yaml:"extraction"`

	// Graph export/import
	Export ExportConfig `yaml:"export"`

	// SQLite archive
	Archive ArchiveConfig `yaml:"archive"`

	// Query defaults
	Query QueryConfig `yaml:"query"`

	// Logging
	Debug bool `yaml:"debug"`
}

// ExtractionConfig bounds batch extraction runs.
type ExtractionConfig struct {
	// MaxLayoutFiles caps how many layout files one batch run processes.
	MaxLayoutFiles int `yaml:"max_layout_files"`
	// MaxCommands caps how many admissible commands the game-state
	// extractor samples per instance.
	MaxCommands int `yaml:"max_commands"`
}

// ExportConfig locates the batch export directory.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// ArchiveConfig locates the SQLite archive database.
type ArchiveConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// QueryConfig holds query-layer defaults.
type QueryConfig struct {
	// MaxPathLength is the default hop bound for path queries.
	MaxPathLength int `yaml:"max_path_length"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Extraction: ExtractionConfig{
			MaxLayoutFiles: 20,
			MaxCommands:    20,
		},
		Export: ExportConfig{
			Dir: "data/knowledge_graphs",
		},
		Archive: ArchiveConfig{
			Path:    "data/worldkg.db",
			Enabled: false,
		},
		Query: QueryConfig{
			MaxPathLength: 5,
		},
	}
}

// Load reads YAML configuration from path, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides maps WORLDKG_* environment variables onto the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WORLDKG_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := os.Getenv("WORLDKG_ARCHIVE_PATH"); v != "" {
		cfg.Archive.Path = v
		cfg.Archive.Enabled = true
	}
	if v := os.Getenv("WORLDKG_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	if v := os.Getenv("WORLDKG_MAX_PATH_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Query.MaxPathLength = n
		}
	}
}
