// Package config handles configuration loading and defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultAddr            = ":8080"
	DefaultDataFile        = "tasks.csv"
	DefaultLogLevel        = "info"
	DefaultShutdownSeconds = 10
)

// Config holds the full configuration for planner.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `toml:"addr"`

	// DataFile is the CSV file the store persists to. Empty disables
	// persistence.
	DataFile string `toml:"data_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// ShutdownSeconds bounds graceful HTTP shutdown.
	ShutdownSeconds int `toml:"shutdown_seconds"`
}

// ShutdownTimeout returns the graceful-shutdown bound as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownSeconds) * time.Second
}

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. Config file (TOML)
// 3. Environment variables
// 4. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	configFile := findConfigFile()
	if configFile != "" {
		if err := loadConfigFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configFile, err)
		}
	}

	loadFromEnv(cfg)

	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Addr = DefaultAddr
	cfg.DataFile = DefaultDataFile
	cfg.LogLevel = DefaultLogLevel
	cfg.ShutdownSeconds = DefaultShutdownSeconds
}

// findConfigFile looks for a config file in the current directory.
func findConfigFile() string {
	if v := os.Getenv("PLANNER_CONFIG"); v != "" {
		return v
	}
	names := []string{"planner.toml", ".planner.toml"}
	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// loadConfigFile loads TOML config from the given file.
func loadConfigFile(cfg *Config, path string) error {
	_, err := toml.DecodeFile(path, cfg)
	return err
}

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("PLANNER_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("PLANNER_DATA_FILE"); v != "" {
		cfg.DataFile = v
	}
	if v := os.Getenv("PLANNER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PLANNER_SHUTDOWN_SECONDS"); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			cfg.ShutdownSeconds = i
		}
	}
}

// parseFlags lets CLI flags override everything else.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DataFile, "data", cfg.DataFile, "CSV data file path (empty disables persistence)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	fs.IntVar(&cfg.ShutdownSeconds, "shutdown-seconds", cfg.ShutdownSeconds, "Graceful shutdown timeout in seconds")
	return fs.Parse(args)
}
