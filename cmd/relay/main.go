package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/linkkeeper/internal/config"
	"github.com/iudanet/linkkeeper/internal/relay"
	pkgconfig "github.com/iudanet/linkkeeper/pkg/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "relay.yaml", "Path to config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	dbPath := flag.String("db", "", "Path to the operations database (overrides config)")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*configPath, *port, *dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int, dbPath string) error {
	cfg := config.NewDefaultRelayConfig()
	if err := pkgconfig.LoadOrDefault(configPath, cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if port != 0 {
		cfg.HTTP.Port = port
	}
	if dbPath != "" {
		cfg.SQLite.Path = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ops, err := relay.NewOpStore(ctx, cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("failed to open operations store: %w", err)
	}
	defer func() {
		if err := ops.Close(); err != nil {
			logger.Error("failed to close operations store", "error", err)
		}
	}()

	server := relay.NewServer(ops, relay.NewHub(), logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("relay listening",
			"addr", cfg.HTTP.Address(),
			"db", cfg.SQLite.Path,
			"version", Version,
		)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down relay")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("relay stopped")
	return nil
}

func printVersion() {
	fmt.Printf("Linkkeeper Relay\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
