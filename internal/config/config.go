// Package config loads stak.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"gopkg.in/yaml.v3"
)

// Config represents the stak.yaml configuration file.
//
// Example:
//
//	log_level: info
//	color: never
//	encoding: shift_jis
//	prelude:
//	  - lib/prelude.stk
//	history:
//	  enabled: true
//	  path: ~/.stak_history.db
//	  limit: 1000
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Color controls colored diagnostics: auto, always or never.
	Color string `yaml:"color"`

	// Encoding names the IANA character set source files are written in.
	Encoding string `yaml:"encoding"`

	// Prelude files are imported before the main program, in order.
	// Relative paths are resolved against the config file's directory.
	Prelude []string `yaml:"prelude"`

	History History `yaml:"history"`

	// Path is the file the config was read from; empty for defaults.
	Path string `yaml:"-"`
}

// History configures the REPL history store.
type History struct {
	// Enabled defaults to true when omitted.
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
	Limit   int    `yaml:"limit"`
}

// IsEnabled reports whether history should be recorded.
func (h History) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// Default returns the configuration used when no stak.yaml is found.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a stak.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses stak.yaml content. path is used for error messages and
// to resolve prelude paths.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.Path = path
	cfg.resolvePrelude(filepath.Dir(path))
	return &cfg, nil
}

// FindConfig searches for stak.yaml starting from dir and walking up to the
// filesystem root. Returns "" if no config file is found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Discover finds and loads the config for dir, falling back to Default.
func Discover(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}
	return LoadConfig(path)
}

func (c *Config) validate(path string) error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s: log_level %q must be one of debug, info, warn, error", path, c.LogLevel)
	}

	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("%s: color %q must be one of auto, always, never", path, c.Color)
	}

	if _, err := ianaindex.IANA.Encoding(c.Encoding); err != nil {
		return fmt.Errorf("%s: encoding %q: %w", path, c.Encoding, err)
	}

	for i, p := range c.Prelude {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%s: prelude[%d]: path is empty", path, i)
		}
	}

	if c.History.Limit < 0 {
		return fmt.Errorf("%s: history.limit must be non-negative, got %d", path, c.History.Limit)
	}

	return nil
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Color == "" {
		c.Color = DefaultColor
	}
	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}
	if c.History.Limit == 0 {
		c.History.Limit = DefaultHistoryLimit
	}
}

func (c *Config) resolvePrelude(dir string) {
	for i, p := range c.Prelude {
		if !filepath.IsAbs(p) {
			c.Prelude[i] = filepath.Join(dir, p)
		}
	}
}

// HistoryPath returns the history database path with a leading ~ expanded.
func (c *Config) HistoryPath() (string, error) {
	p := c.History.Path
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %s: %w", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p, nil
}
