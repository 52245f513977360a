package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/linkkeeper/internal/store"
)

func RunTags(ctx context.Context, s *store.Store) error {
	counts := s.TagCounts()
	if len(counts) == 0 {
		fmt.Println("No tags yet.")
		return nil
	}

	fmt.Printf("Tags (%d):\n", len(counts))
	for _, tc := range counts {
		fmt.Printf("  %-20s %d\n", tc.Tag, tc.Count)
	}
	return nil
}

func RunTag(ctx context.Context, args []string, s *store.Store) error {
	if len(args) == 0 {
		return fmt.Errorf("missing tag. Usage: linkkeeper tag <tag>")
	}

	links := s.LinksByTag(args[0])
	if len(links) == 0 {
		fmt.Printf("No links tagged %q.\n", args[0])
		return nil
	}

	fmt.Printf("Found %d link(s) tagged %q:\n", len(links), args[0])
	fmt.Println()
	for i, link := range links {
		printLinkShort(i, link)
	}
	return nil
}
