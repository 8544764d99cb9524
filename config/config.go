// Package config loads engine and logging settings from TOML files with
// environment overrides and environment-specific overlays.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/tsawler/pdfedit/engine"
	"github.com/tsawler/pdfedit/logging"
)

const (
	// BaseConfigFile is the default configuration file name.
	BaseConfigFile = "pdfedit.toml"

	// OverlayConfigPattern is the file name pattern for environment-specific overlays.
	OverlayConfigPattern = "pdfedit.%s.toml"

	// EnvPDFEditEnv selects the overlay.
	EnvPDFEditEnv = "PDFEDIT_ENV"

	EnvLogLevel  = "PDFEDIT_LOG_LEVEL"
	EnvLogFormat = "PDFEDIT_LOG_FORMAT"
)

// Config is the root configuration.
type Config struct {
	Engine  EngineConfig   `toml:"engine"`
	Logging logging.Config `toml:"logging"`
}

// Default returns the finalized configuration used when no file exists.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the file at path and applies the overlay named by
// PDFEDIT_ENV from the same directory, if it exists. The result is not
// finalized.
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	if overlay := overlayPath(path); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}
	return cfg, nil
}

// LoadOrDefault is Load for a path that may not exist; a missing base file
// yields the defaults. The result is finalized.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = &Config{}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a TOML document. The result is not finalized.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize() error {
	if err := c.Engine.Finalize(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Logging.Finalize(&logging.Env{Level: EnvLogLevel, Format: EnvLogFormat}); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	c.Engine.Merge(&overlay.Engine)
	c.Logging.Merge(&overlay.Logging)
}

// NewEngine builds an engine from the finalized engine section.
func (c *Config) NewEngine() *engine.Engine {
	return engine.New(c.Engine.Options())
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func overlayPath(base string) string {
	env := os.Getenv(EnvPDFEditEnv)
	if env == "" {
		return ""
	}
	path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
