package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the forum store configuration.
type Config struct {
	Paths PathsConfig `yaml:"paths"`
	Store StoreConfig `yaml:"store"`
}

// PathsConfig holds filesystem paths for data and SQL assets.
type PathsConfig struct {
	Data     string `yaml:"data"`
	Database string `yaml:"database"`
	Schema   string `yaml:"schema"`
	Seed     string `yaml:"seed"`
	Scripts  string `yaml:"scripts"`
}

// StoreConfig holds session-open-time store options.
type StoreConfig struct {
	ForeignKeys   bool `yaml:"foreign_keys"`
	BusyTimeoutMS int  `yaml:"busy_timeout_ms"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Data:     "./data",
			Database: "./data/forum.db",
			Schema:   "./db/forum_schema_dump.sql",
			Seed:     "./db/forum_data_dump.sql",
			Scripts:  "./scripts",
		},
		Store: StoreConfig{
			ForeignKeys:   true,
			BusyTimeoutMS: 5000,
		},
	}
}

// BusyTimeout returns the busy timeout as a duration.
func (c *Config) BusyTimeout() time.Duration {
	return time.Duration(c.Store.BusyTimeoutMS) * time.Millisecond
}
