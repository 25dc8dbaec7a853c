package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":6390", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.shutdownTimeout())
	assert.Empty(t, cfg.DBPath, "default keyspace is in-memory")
}

func TestConfigMerge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(&Config{Addr: ":7000", SchemaDir: "protos", ShutdownSeconds: 30})

	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "protos", cfg.SchemaDir)
	assert.Equal(t, 30*time.Second, cfg.shutdownTimeout())
	assert.Equal(t, "info", cfg.LogLevel, "unset fields keep their defaults")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"addr": ":7001",
		"metrics_addr": ":9101",
		"db_path": "records.db",
		"log_format": "json"
	}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.Addr)
	assert.Equal(t, ":9101", cfg.MetricsAddr)
	assert.Equal(t, "records.db", cfg.DBPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))
	_, err = LoadConfig(path)
	require.Error(t, err)
}

func TestEnvConfig(t *testing.T) {
	t.Setenv("REDISPB_ADDR", ":7003")
	t.Setenv("REDISPB_LOG_LEVEL", "debug")
	t.Setenv("REDISPB_SHUTDOWN_TIMEOUT", "20")

	cfg := DefaultConfig()
	env := EnvConfig()
	cfg.Merge(&env)
	assert.Equal(t, ":7003", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 20, cfg.ShutdownSeconds)
	assert.Equal(t, "text", cfg.LogFormat, "unset variables keep their defaults")
}

func TestParseArgs(t *testing.T) {
	cli, overrides, err := parseArgs([]string{
		"-config", "server.json",
		"-addr", ":7002",
		"-schemas", "protos",
		"-shutdown-timeout", "10",
	})
	require.NoError(t, err)
	assert.Equal(t, "server.json", cli.ConfigPath)
	assert.False(t, cli.ShowVersion)

	cfg := DefaultConfig()
	cfg.Merge(&overrides)
	assert.Equal(t, ":7002", cfg.Addr)
	assert.Equal(t, "protos", cfg.SchemaDir)
	assert.Equal(t, 10, cfg.ShutdownSeconds)
	assert.Equal(t, "info", cfg.LogLevel, "unset flags do not override defaults")
}
