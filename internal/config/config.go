package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the sweep settings. Values may come from an optional YAML
// file and are overridden by command-line flags.
type Config struct {
	OutputRoot  string        `yaml:"output_root"`
	Port        int           `yaml:"port"`
	Domain      string        `yaml:"domain"`
	Timeout     time.Duration `yaml:"timeout"`
	HostWorkers int           `yaml:"host_workers"`
	SkipAdmin   bool          `yaml:"skip_admin"`
}

// Default returns the baseline configuration: sequential sweep, 5 second
// dial timeout, mirror tree rooted at ./output.
func Default() Config {
	return Config{
		OutputRoot:  "output",
		Port:        445,
		Domain:      ".",
		Timeout:     5 * time.Second,
		HostWorkers: 1,
	}
}

// UnmarshalYAML decodes onto whatever values the Config already holds, so
// absent keys keep their defaults. Durations are given as strings ("5s").
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		OutputRoot  *string `yaml:"output_root"`
		Port        *int    `yaml:"port"`
		Domain      *string `yaml:"domain"`
		Timeout     *string `yaml:"timeout"`
		HostWorkers *int    `yaml:"host_workers"`
		SkipAdmin   *bool   `yaml:"skip_admin"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.OutputRoot != nil {
		c.OutputRoot = *raw.OutputRoot
	}
	if raw.Port != nil {
		c.Port = *raw.Port
	}
	if raw.Domain != nil {
		c.Domain = *raw.Domain
	}
	if raw.Timeout != nil {
		d, err := time.ParseDuration(*raw.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		c.Timeout = d
	}
	if raw.HostWorkers != nil {
		c.HostWorkers = *raw.HostWorkers
	}
	if raw.SkipAdmin != nil {
		c.SkipAdmin = *raw.SkipAdmin
	}
	return nil
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the sweep cannot run with.
func (c Config) Validate() error {
	if c.OutputRoot == "" {
		return fmt.Errorf("output root must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.HostWorkers < 1 {
		return fmt.Errorf("host workers must be at least 1")
	}
	return nil
}
