// Package config provides YAML-based configuration loading for dialdesk.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level dialdesk configuration, loaded from config.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Queue    QueueConfig    `yaml:"queue"`
	Agents   AgentConfig    `yaml:"agents"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// DatabaseConfig holds connection settings for the backing store.
// Driver is "sqlite" or "mysql".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"` // sqlite only
	Host     string `yaml:"host"` // mysql only
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// QueueConfig controls queue lifecycle policy.
type QueueConfig struct {
	// Strict requires an entry to be assigned before it can be completed
	// or skipped. Disable for the permissive legacy behavior.
	Strict *bool `yaml:"strict"`
	// LeaseSeconds is how long an assignment may sit without completion
	// before the sweeper returns it to pending. Zero disables reclaim.
	LeaseSeconds int `yaml:"lease_seconds"`
	// SweepSchedule is a 5-field cron expression for the reclaim sweeper.
	SweepSchedule string `yaml:"sweep_schedule"`
}

// AgentConfig controls agent state engine policy.
type AgentConfig struct {
	// EnforceTransitions turns on the explicit state transition table.
	// Off by default: any state may follow any state.
	EnforceTransitions bool `yaml:"enforce_transitions"`
}

// NotifyConfig holds outbound notification settings. Empty tokens disable
// the corresponding adapter.
type NotifyConfig struct {
	SlackToken     string `yaml:"slack_token"`
	SlackChannel   string `yaml:"slack_channel"`
	DiscordToken   string `yaml:"discord_token"`
	DiscordChannel string `yaml:"discord_channel"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a Config with all defaults applied, used when no config
// file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Lease returns the assignment lease as a duration. Zero disables reclaim.
func (c *Config) Lease() time.Duration {
	return time.Duration(c.Queue.LeaseSeconds) * time.Second
}

// StrictQueue reports whether strict lifecycle preconditions are enabled.
func (c *Config) StrictQueue() bool {
	if c.Queue.Strict == nil {
		return true
	}
	return *c.Queue.Strict
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "dialdesk.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "dialdesk"
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Queue.SweepSchedule == "" {
		c.Queue.SweepSchedule = "* * * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Queue.LeaseSeconds < 0 {
		errs = append(errs, "queue.lease_seconds must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
