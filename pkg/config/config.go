// Package config loads and validates the run configuration: which tables to
// download, for which counties and vintage, and how the client should behave.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// APIKeyEnv is the environment variable that overrides the configured API key.
const APIKeyEnv = "ACS_API_KEY"

// TableGroup identifies one statistical table group to download.
type TableGroup struct {
	// Code is the census table id, e.g. "B25003".
	Code string `yaml:"code"`

	// Label names the output file, e.g. "Tenure".
	Label string `yaml:"label"`

	// Variables optionally pins the group's variable list. When empty the
	// list is fetched from the API's group metadata endpoint.
	Variables []string `yaml:"variables,omitempty"`
}

// Config is the immutable run configuration. It is loaded once and passed by
// value; nothing mutates it after Load returns.
type Config struct {
	// Year is the ACS vintage, e.g. 2023.
	Year int `yaml:"year"`

	// Dataset path under the year (default "acs/acs5").
	Dataset string `yaml:"dataset"`

	// BaseURL of the census API. Overridable for tests.
	BaseURL string `yaml:"base_url"`

	// APIKey is the census API credential. The ACS_API_KEY environment
	// variable takes precedence.
	APIKey string `yaml:"api_key"`

	// Region labels output files, e.g. "ARC" -> ARC_Tenure_2023_BG.csv.
	Region string `yaml:"region"`

	// OutputDir is where CSV files are written (default ".").
	OutputDir string `yaml:"output_dir"`

	// State is the two-digit FIPS state code.
	State string `yaml:"state"`

	// Counties are three-digit FIPS county codes within State.
	Counties []string `yaml:"counties"`

	// Tables are the table groups to download.
	Tables []TableGroup `yaml:"tables"`

	// MaxChunkVars caps the data variables per request, excluding the NAME
	// slot (default 20).
	MaxChunkVars int `yaml:"max_chunk_vars"`

	// Retry / timing knobs.
	MaxAttempts    int      `yaml:"max_attempts"`
	InitialBackoff Duration `yaml:"initial_backoff"`
	MaxBackoff     Duration `yaml:"max_backoff"`
	RequestTimeout Duration `yaml:"request_timeout"`

	// RequestPause is an optional delay between consecutive API calls.
	RequestPause Duration `yaml:"request_pause"`
}

// Duration wraps time.Duration with YAML support for values like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load reads, defaults and validates a YAML configuration file.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()

	if key := os.Getenv(APIKeyEnv); key != "" {
		cfg.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Dataset == "" {
		c.Dataset = "acs/acs5"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.census.gov"
	}
	if c.Region == "" {
		c.Region = "ARC"
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.MaxChunkVars == 0 {
		c.MaxChunkVars = 20
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 5
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = Duration(2 * time.Second)
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = Duration(30 * time.Second)
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = Duration(30 * time.Second)
	}
}

// Validate checks the configuration for completeness.
func (c Config) Validate() error {
	if c.Year <= 0 {
		return fmt.Errorf("year is required")
	}
	if c.State == "" {
		return fmt.Errorf("state is required")
	}
	if len(c.Counties) == 0 {
		return fmt.Errorf("at least one county is required")
	}
	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table is required")
	}
	for i, tg := range c.Tables {
		if tg.Code == "" {
			return fmt.Errorf("tables[%d]: code is required", i)
		}
		if tg.Label == "" {
			return fmt.Errorf("tables[%d] (%s): label is required", i, tg.Code)
		}
	}
	if c.MaxChunkVars <= 0 {
		return fmt.Errorf("max_chunk_vars must be positive (got %d)", c.MaxChunkVars)
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	return nil
}

// OutputPath returns the deterministic CSV path for a table group:
// <OutputDir>/<Region>_<Label>_<Year>_BG.csv.
func (c Config) OutputPath(tg TableGroup) string {
	return filepath.Join(c.OutputDir, fmt.Sprintf("%s_%s_%d_BG.csv", c.Region, tg.Label, c.Year))
}
