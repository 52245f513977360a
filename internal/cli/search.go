package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/linkkeeper/internal/store"
)

func RunSearch(ctx context.Context, args []string, s *store.Store) error {
	if len(args) == 0 {
		return fmt.Errorf("missing search term. Usage: linkkeeper search <term>")
	}

	term := strings.Join(args, " ")
	links := s.SearchLinks(term)
	if len(links) == 0 {
		fmt.Printf("Nothing found for %q.\n", term)
		return nil
	}

	fmt.Printf("Found %d link(s) for %q:\n", len(links), term)
	fmt.Println()
	for i, link := range links {
		printLinkShort(i, link)
	}
	return nil
}
