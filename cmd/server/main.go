package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/cmsauth/internal/config"
	"github.com/iudanet/cmsauth/internal/logging"
	"github.com/iudanet/cmsauth/internal/server"
	"github.com/iudanet/cmsauth/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Parse flags
	showVersion := flag.Bool("version", false, "Show version information")
	envFile := flag.String("env-file", "", "Path to .env file with configuration")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Setup("cmsauth", Version, cfg.LogFormat, cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	srv, err := server.New(cfg, logger, store, Version)
	if err != nil {
		return err
	}
	defer srv.Close()

	if !cfg.CookieSecure {
		logger.Warn("cookies are sent without the Secure attribute")
	}

	return srv.Run(ctx)
}

func printVersion() {
	fmt.Printf("cmsauth server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
