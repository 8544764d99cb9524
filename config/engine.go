package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/docker/go-units"

	"github.com/tsawler/pdfedit/engine"
)

const (
	EnvMaxSourceSize = "PDFEDIT_MAX_SOURCE_SIZE"
	EnvMaxPages      = "PDFEDIT_MAX_PAGES"
	EnvBlankPageSize = "PDFEDIT_BLANK_PAGE_SIZE"
)

// EngineConfig bounds what the editing engine accepts.
type EngineConfig struct {
	// MaxSourceSize is a human-readable size such as "100MB".
	MaxSourceSize string `toml:"max_source_size"`
	MaxPages      int    `toml:"max_pages"`
	// BlankPageSize is a size name (A4, Letter, ...) or "WxH" in points.
	BlankPageSize string `toml:"blank_page_size"`

	maxSourceSizeVal int64
	blankPageSizeVal engine.PageSize
}

// MaxSourceSizeBytes returns the parsed source size limit.
func (c *EngineConfig) MaxSourceSizeBytes() int64 {
	return c.maxSourceSizeVal
}

// Options converts the finalized section into engine options.
func (c *EngineConfig) Options() engine.Options {
	return engine.Options{
		MaxPages:      c.MaxPages,
		MaxSourceSize: c.maxSourceSizeVal,
		BlankPageSize: c.blankPageSizeVal,
	}
}

// Finalize applies defaults, loads environment overrides, and validates the engine configuration.
func (c *EngineConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if overlay.MaxSourceSize != "" {
		c.MaxSourceSize = overlay.MaxSourceSize
	}
	if overlay.MaxPages != 0 {
		c.MaxPages = overlay.MaxPages
	}
	if overlay.BlankPageSize != "" {
		c.BlankPageSize = overlay.BlankPageSize
	}
}

func (c *EngineConfig) loadDefaults() {
	if c.MaxSourceSize == "" {
		c.MaxSourceSize = "100MB"
	}
	if c.MaxPages == 0 {
		c.MaxPages = 10000
	}
	if c.BlankPageSize == "" {
		c.BlankPageSize = "A4"
	}
}

func (c *EngineConfig) loadEnv() error {
	if v := os.Getenv(EnvMaxSourceSize); v != "" {
		c.MaxSourceSize = v
	}
	if v := os.Getenv(EnvMaxPages); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxPages, err)
		}
		c.MaxPages = n
	}
	if v := os.Getenv(EnvBlankPageSize); v != "" {
		c.BlankPageSize = v
	}
	return nil
}

func (c *EngineConfig) validate() error {
	size, err := units.FromHumanSize(c.MaxSourceSize)
	if err != nil {
		return fmt.Errorf("invalid max_source_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_source_size must be positive")
	}
	c.maxSourceSizeVal = size

	if c.MaxPages < 1 {
		return fmt.Errorf("max_pages must be at least 1")
	}

	pageSize, err := engine.ParsePageSize(c.BlankPageSize)
	if err != nil {
		return fmt.Errorf("invalid blank_page_size: %w", err)
	}
	c.blankPageSizeVal = pageSize
	return nil
}
