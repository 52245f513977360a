package cli

import (
	"context"
	"flag"
	"fmt"
	"log/slog"

	"github.com/iudanet/linkkeeper/internal/config"
	"github.com/iudanet/linkkeeper/internal/store"
	"github.com/iudanet/linkkeeper/internal/sync"
)

func RunSync(ctx context.Context, args []string, cfg *config.ClientConfig, s *store.Store, logger *slog.Logger) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	watch := fs.Bool("watch", false, "Keep syncing until interrupted")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !cfg.Sync.Enabled {
		return fmt.Errorf("sync is not configured. Pass --relay URL or set sync.relay_url in the config")
	}

	id, err := s.Identity()
	if err != nil {
		return err
	}

	progress, err := sync.OpenProgress(cfg.SyncStatePath())
	if err != nil {
		return fmt.Errorf("failed to open sync state: %w", err)
	}
	defer func() {
		if err := progress.Close(); err != nil {
			logger.Error("failed to close sync state", "error", err)
		}
	}()

	client := sync.NewClient(cfg.Sync.RelayURL, id.String(), s.Actor(), s, progress, logger)

	if *watch {
		fmt.Printf("Watching %s, press Ctrl+C to stop...\n", cfg.Sync.RelayURL)
		// Правки, сделанные через этот же Store, уходят без ожидания
		s.OnChange(client.NotifyLocalChange)
		go reportEvents(ctx, client.Events())
		if err := client.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}

	if err := client.SyncOnce(ctx); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("In sync with %s: %d link(s).\n", cfg.Sync.RelayURL, len(s.ListLinks()))
	return nil
}

// reportEvents печатает события клиента в режиме --watch.
func reportEvents(ctx context.Context, events <-chan sync.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			switch e.Kind {
			case sync.EventStatusChanged:
				fmt.Printf("sync: %s\n", e.Status)
			case sync.EventDocumentUpdated:
				fmt.Println("sync: received changes")
			case sync.EventSyncError:
				fmt.Printf("sync: error: %v\n", e.Err)
			}
		}
	}
}
