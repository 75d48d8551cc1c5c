package app

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "pollbot/core/config"
	coredatabase "pollbot/core/database"
)

// Config aggregates core settings with the bot's own sections.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
}

// Load reads the combined configuration from a YAML file and environment.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}
