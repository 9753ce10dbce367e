package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the run configuration for a single migration.
// Values are supplied once at process start; nothing here changes mid-run.
type Config struct {
	URL      string `env:"NETBOX_URL" envDefault:"http://localhost:8001"`
	Token    string `env:"NETBOX_TOKEN"`
	DataDir  string `env:"-"`
	DryRun   bool   `env:"-"`
	LogLevel string `env:"BOXHAUL_LOG_LEVEL" envDefault:"info"`

	Rules Rules `env:"-"`
}

// Rules configures which hardware vendors and platforms are excluded
// from the migration, along with everything that depends on them.
type Rules struct {
	// Manufacturers are matched exactly against the manufacturer name.
	Manufacturers []string `yaml:"manufacturers"`
	// Platforms are matched case-insensitively against the platform
	// name and slug.
	Platforms []string `yaml:"platforms"`
}

// DefaultRules returns the built-in exclusion rules.
func DefaultRules() Rules {
	return Rules{
		Manufacturers: []string{"Arista", "Juniper"},
		Platforms:     []string{"juniper junos", "eos", "nxos"},
	}
}

// FromEnv builds a Config from environment variables with defaults applied.
// CLI flags override these values afterwards.
func FromEnv() (*Config, error) {
	cfg := &Config{Rules: DefaultRules()}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// LoadRules reads an exclusion rules file in YAML format.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return rules, nil
}

// Validate checks that the configuration is usable for the selected mode.
// Whether the snapshot directory exists is the snapshot store's concern,
// checked when it opens.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("snapshot directory is required")
	}
	if !c.DryRun && c.Token == "" {
		return fmt.Errorf("an API token is required for live runs (flag --token or NETBOX_TOKEN)")
	}
	return nil
}
