package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/linkkeeper/internal/config"
	"github.com/iudanet/linkkeeper/internal/store"
	"github.com/iudanet/linkkeeper/internal/sync"
)

func RunStatus(ctx context.Context, cfg *config.ClientConfig, s *store.Store) error {
	fmt.Println("=== Linkkeeper Status ===")
	fmt.Println()

	if !s.Initialized() {
		fmt.Println("Replica:  not initialized")
		fmt.Println()
		fmt.Println("Run 'linkkeeper init' to create a new collection,")
		fmt.Println("or 'linkkeeper join <identity>' to join an existing one.")
		return nil
	}

	id, err := s.Identity()
	if err != nil {
		return err
	}

	fmt.Printf("Identity: %s\n", id)
	fmt.Printf("Data dir: %s\n", cfg.DataDir)
	fmt.Printf("Links:    %d\n", len(s.ListLinks()))
	fmt.Printf("Tags:     %d\n", len(s.TagCounts()))
	fmt.Println()

	if !cfg.Sync.Enabled {
		fmt.Println("Sync:     disabled")
		return nil
	}

	fmt.Printf("Relay:    %s\n", cfg.Sync.RelayURL)

	progress, err := sync.OpenProgress(cfg.SyncStatePath())
	if err != nil {
		// База может быть занята работающим 'sync --watch'
		fmt.Printf("Sync:     state unavailable (%v)\n", err)
		return nil
	}
	defer progress.Close()

	prog, err := progress.Get(ctx, cfg.Sync.RelayURL)
	if err != nil {
		return err
	}
	if prog.LastSeq == 0 {
		fmt.Println("Sync:     never synced with this relay")
		return nil
	}
	fmt.Printf("Sync:     caught up through relay op %d\n", prog.LastSeq)
	return nil
}
