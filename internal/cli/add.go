package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/iudanet/linkkeeper/internal/models"
	"github.com/iudanet/linkkeeper/internal/store"
)

func RunAdd(ctx context.Context, args []string, s *store.Store) error {
	if len(args) == 0 {
		return fmt.Errorf("missing URL. Usage: linkkeeper add <url> [--title T] [--description D] [--tags a,b] [--authors x,y]")
	}

	url := args[0]
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	title := fs.String("title", "", "Link title (defaults to the URL)")
	description := fs.String("description", "", "Link description")
	tags := fs.String("tags", "", "Comma-separated tags")
	authors := fs.String("authors", "", "Comma-separated authors")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	link := models.NewLink(url)
	if *title != "" {
		link.Title = *title
	}
	link.Description = *description
	link.Tags = splitTags(*tags)
	link.Authors = splitTags(*authors)

	if err := s.AddLink(ctx, link); err != nil {
		return fmt.Errorf("failed to add link: %w", err)
	}

	fmt.Printf("Added %s\n", link.URL)
	fmt.Printf("ID: %s\n", link.ID)
	return nil
}
