package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/linkkeeper/internal/store"
)

func RunGet(ctx context.Context, args []string, s *store.Store) error {
	if len(args) == 0 {
		return fmt.Errorf("missing link ID. Usage: linkkeeper get <id>")
	}

	link, err := s.GetLink(args[0])
	if err != nil {
		return fmt.Errorf("failed to get link: %w", err)
	}

	fmt.Printf("Title:       %s\n", link.Title)
	fmt.Printf("ID:          %s\n", link.ID)
	fmt.Printf("URL:         %s\n", link.URL)
	if link.Description != "" {
		fmt.Printf("Description: %s\n", link.Description)
	}
	if len(link.Authors) > 0 {
		fmt.Printf("Authors:     %s\n", strings.Join(link.Authors, ", "))
	}
	if len(link.Tags) > 0 {
		fmt.Printf("Tags:        %s\n", strings.Join(link.Tags, ", "))
	}
	fmt.Printf("Created:     %s\n", link.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Printf("Updated:     %s\n", link.UpdatedAt.Local().Format("2006-01-02 15:04"))

	if len(link.Notes) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Printf("Notes (%d):\n", len(link.Notes))
	for i, note := range link.Notes {
		fmt.Println()
		if note.Title != "" {
			fmt.Printf("%d. %s\n", i+1, note.Title)
		} else {
			fmt.Printf("%d.\n", i+1)
		}
		fmt.Printf("   ID: %s\n", note.ID)
		fmt.Printf("   %s\n", note.Body)
	}
	return nil
}
