// Package config loads settings from $XDG_CONFIG_HOME/narr/config.yaml and
// NARR_* environment variables. Command-line flags are applied by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/metcalfc/narr/internal/api"
	"github.com/metcalfc/narr/internal/book"
	"github.com/metcalfc/narr/internal/playback"
)

const fileName = "config.yaml"

// Config holds all user settings.
type Config struct {
	APIURL           string        `yaml:"api_url"`
	Token            string        `yaml:"token,omitempty"`
	LinesPerPage     int           `yaml:"lines_per_page"`
	CharsPerLine     int           `yaml:"chars_per_line"`
	SentenceFallback time.Duration `yaml:"sentence_fallback"`
	Debug            bool          `yaml:"debug"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIURL:           api.DefaultBaseURL,
		LinesPerPage:     book.DefaultMaxLinesPerPage,
		CharsPerLine:     book.DefaultMaxCharsPerLine,
		SentenceFallback: playback.DefaultSentenceDuration,
	}
}

// Dir returns XDG_CONFIG_HOME/narr or ~/.config/narr
func Dir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "narr")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "narr")
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(Dir(), fileName)
}

// Load reads the config file, if present, and applies environment overrides.
func Load() (Config, error) {
	cfg, err := LoadFile(Path())
	if err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile reads path over the defaults. A missing file is not an error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.fillZero()
	return cfg, nil
}

// Save writes cfg to path, creating its directory.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("NARR_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("NARR_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("NARR_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("NARR_DEBUG: %w", err)
		}
		c.Debug = debug
	}
	return nil
}

// fillZero restores defaults for keys set to zero or negative values.
func (c *Config) fillZero() {
	def := Default()
	if c.APIURL == "" {
		c.APIURL = def.APIURL
	}
	if c.LinesPerPage <= 0 {
		c.LinesPerPage = def.LinesPerPage
	}
	if c.CharsPerLine <= 0 {
		c.CharsPerLine = def.CharsPerLine
	}
	if c.SentenceFallback <= 0 {
		c.SentenceFallback = def.SentenceFallback
	}
}

// Layout returns the page layout described by the config.
func (c Config) Layout() book.Layout {
	return book.Layout{MaxLinesPerPage: c.LinesPerPage, MaxCharsPerLine: c.CharsPerLine}
}
