package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/iudanet/linkkeeper/internal/cli"
	"github.com/iudanet/linkkeeper/internal/config"
	"github.com/iudanet/linkkeeper/internal/storage"
	"github.com/iudanet/linkkeeper/internal/store"
	pkgconfig "github.com/iudanet/linkkeeper/pkg/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", defaultConfigPath(), "Path to config file")
	dataDir := flag.String("data-dir", "", "Data directory (overrides config)")
	relayURL := flag.String("relay", "", "Relay websocket URL (overrides config, enables sync)")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	command := args[0]

	cfg := config.NewDefaultClientConfig()
	if err := pkgconfig.LoadOrDefault(*configPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *relayURL != "" {
		cfg.Sync.RelayURL = *relayURL
		cfg.Sync.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// Контекст отменяется по Ctrl+C (важно для sync --watch)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Открываем реплику
	snapshots, err := storage.NewFSBackend(cfg.SnapshotPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open data directory: %v\n", err)
		os.Exit(1)
	}
	idBackend, err := storage.NewFSBackend(cfg.IdentityPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open data directory: %v\n", err)
		os.Exit(1)
	}

	s, err := store.Open(ctx, store.Options{
		Snapshots: storage.NewSnapshotStore(snapshots, logger),
		Identity:  idBackend,
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open replica: %v\n", err)
		os.Exit(1)
	}

	// Выполняем команду
	switch command {
	case "init":
		if err := cli.RunInit(ctx, s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "join":
		if err := cli.RunJoin(ctx, args[1:], s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "add":
		if err := cli.RunAdd(ctx, args[1:], s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "list":
		if err := cli.RunList(ctx, args[1:], s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "get":
		if err := cli.RunGet(ctx, args[1:], s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "update":
		if err := cli.RunUpdate(ctx, args[1:], s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "delete":
		if err := cli.RunDelete(ctx, args[1:], s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "note":
		if err := cli.RunNote(ctx, args[1:], s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "tag":
		if err := cli.RunTag(ctx, args[1:], s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "tags":
		if err := cli.RunTags(ctx, s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "search":
		if err := cli.RunSearch(ctx, args[1:], s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "sync":
		if err := cli.RunSync(ctx, args[1:], cfg, s, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "status":
		if err := cli.RunStatus(ctx, cfg, s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		cli.PrintUsage()
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "linkkeeper.yaml"
	}
	return filepath.Join(home, ".linkkeeper", "config.yaml")
}

func printVersion() {
	fmt.Printf("Linkkeeper Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
