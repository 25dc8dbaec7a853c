package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Config holds the daemon's settings. Values resolve in four layers:
// built-in defaults, then the JSON config file, then REDISPB_* environment
// variables, then explicit flags.
type Config struct {
	Addr            string `json:"addr"`
	MetricsAddr     string `json:"metrics_addr,omitempty"`
	DBPath          string `json:"db_path,omitempty"`
	SchemaDir       string `json:"schema_dir,omitempty"`
	LogLevel        string `json:"log_level,omitempty"`
	LogFormat       string `json:"log_format,omitempty"`
	ShutdownSeconds int    `json:"shutdown_seconds,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Addr:            ":6390",
		LogLevel:        "info",
		LogFormat:       "text",
		ShutdownSeconds: 5,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.MetricsAddr != "" {
		c.MetricsAddr = source.MetricsAddr
	}
	if source.DBPath != "" {
		c.DBPath = source.DBPath
	}
	if source.SchemaDir != "" {
		c.SchemaDir = source.SchemaDir
	}
	if source.LogLevel != "" {
		c.LogLevel = source.LogLevel
	}
	if source.LogFormat != "" {
		c.LogFormat = source.LogFormat
	}
	if source.ShutdownSeconds > 0 {
		c.ShutdownSeconds = source.ShutdownSeconds
	}
}

// LoadConfig reads a JSON config file and merges it over the defaults.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// EnvConfig returns the settings given as REDISPB_* environment variables.
func EnvConfig() Config {
	var cfg Config
	cfg.Addr = os.Getenv("REDISPB_ADDR")
	cfg.MetricsAddr = os.Getenv("REDISPB_METRICS_ADDR")
	cfg.DBPath = os.Getenv("REDISPB_DB")
	cfg.SchemaDir = os.Getenv("REDISPB_SCHEMAS")
	cfg.LogLevel = os.Getenv("REDISPB_LOG_LEVEL")
	cfg.LogFormat = os.Getenv("REDISPB_LOG_FORMAT")
	if v := os.Getenv("REDISPB_SHUTDOWN_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ShutdownSeconds = n
		}
	}
	return cfg
}

func (c *Config) shutdownTimeout() time.Duration {
	if c.ShutdownSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ShutdownSeconds) * time.Second
}

type cliConfig struct {
	ConfigPath  string
	ShowVersion bool
}

// parseArgs returns the CLI-only settings and a Config holding only the
// values given as flags, ready to Merge over the file layer.
func parseArgs(args []string) (cliConfig, Config, error) {
	var cli cliConfig
	var overrides Config

	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.StringVar(&cli.ConfigPath, "config", "", "path to JSON config file")
	fs.BoolVar(&cli.ShowVersion, "version", false, "print version and exit")
	fs.StringVar(&overrides.Addr, "addr", "", "RESP listen address")
	fs.StringVar(&overrides.MetricsAddr, "metrics-addr", "", "prometheus listen address (disabled when empty)")
	fs.StringVar(&overrides.DBPath, "db", "", "database file (in-memory keyspace when empty)")
	fs.StringVar(&overrides.SchemaDir, "schemas", "", "directory of .proto sources and descriptor sets")
	fs.StringVar(&overrides.LogLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&overrides.LogFormat, "log-format", "", "text or json")
	fs.IntVar(&overrides.ShutdownSeconds, "shutdown-timeout", 0, "seconds to wait for connections to drain on shutdown")

	err := fs.Parse(args)
	return cli, overrides, err
}
