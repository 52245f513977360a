package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/linkkeeper/internal/store"
)

func RunDelete(ctx context.Context, args []string, s *store.Store) error {
	if len(args) == 0 {
		return fmt.Errorf("missing link ID. Usage: linkkeeper delete <id>")
	}

	if err := s.DeleteLink(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
