package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/iudanet/linkkeeper/internal/models"
	"github.com/iudanet/linkkeeper/internal/store"
)

func RunList(ctx context.Context, args []string, s *store.Store) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	tag := fs.String("tag", "", "Only links carrying this tag")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var links []*models.Link
	if *tag != "" {
		links = s.LinksByTag(*tag)
	} else {
		links = s.ListLinks()
	}

	if len(links) == 0 {
		fmt.Println("No links found.")
		fmt.Println()
		fmt.Println("Use 'linkkeeper add <url>' to save your first link.")
		return nil
	}

	fmt.Printf("Found %d link(s):\n", len(links))
	fmt.Println()
	for i, link := range links {
		printLinkShort(i, link)
	}
	return nil
}
