// Command redis-protobuf-server serves a schema-typed protobuf record
// keyspace over the RESP protocol: PB.SET/PB.GET and friends address nested
// message fields by textual path, alongside a plain string command set.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	redispb "github.com/yssource/redis-protobuf"
	"github.com/yssource/redis-protobuf/server"
)

const (
	appName = "redis-protobuf-server"
	version = "0.1.0"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 8192)
			n := runtime.Stack(buf, false)
			fmt.Fprintf(os.Stderr, "PANIC: %v\n%s\n", r, buf[:n])
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:]); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cli, overrides, err := parseArgs(args)
	if err != nil {
		return err
	}
	if cli.ShowVersion {
		fmt.Printf("%s %s\n", appName, version)
		return nil
	}

	cfg := DefaultConfig()
	if cli.ConfigPath != "" {
		loaded, err := LoadConfig(cli.ConfigPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	env := EnvConfig()
	cfg.Merge(&env)
	cfg.Merge(&overrides)

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("starting", "version", version, "addr", cfg.Addr, "db", cfg.DBPath)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The catalog seals before the listener binds; no schema changes while
	// serving.
	cat := redispb.NewCatalog()
	if cfg.SchemaDir != "" {
		if err := cat.LoadDir(ctx, cfg.SchemaDir); err != nil {
			return fmt.Errorf("load schemas: %w", err)
		}
	} else {
		logger.Warn("no schema directory configured, no record types registered")
	}
	cat.Seal()
	logger.Info("schemas loaded", "dir", cfg.SchemaDir, "types", cat.Len())

	db, err := redispb.Open(cfg.DBPath, cat, redispb.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer db.Close()

	srv := server.New(db, server.Options{
		Addr:        cfg.Addr,
		MetricsAddr: cfg.MetricsAddr,
		Logger:      logger,
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.shutdownTimeout())
	defer cancelShutdown()
	return srv.Stop(shutdownCtx)
}
