package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/linkkeeper/internal/store"
)

func RunInit(ctx context.Context, s *store.Store) error {
	id, err := s.Init(ctx)
	if err != nil {
		return err
	}

	fmt.Println("=== New Collection Created ===")
	fmt.Println()
	fmt.Printf("Identity: %s\n", id)
	fmt.Println()
	fmt.Println("Keep this identity: run 'linkkeeper join <identity>' on other")
	fmt.Println("devices to sync them into the same collection.")
	return nil
}

func RunJoin(ctx context.Context, args []string, s *store.Store) error {
	if len(args) == 0 {
		return fmt.Errorf("missing identity. Usage: linkkeeper join <identity>")
	}

	id, err := s.Join(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}

	fmt.Printf("Joined collection %s\n", id)
	fmt.Println()
	fmt.Println("The collection starts empty and will fill up on the first sync.")
	fmt.Println("Links added before that are kept and merged in.")
	return nil
}
