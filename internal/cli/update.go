package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/iudanet/linkkeeper/internal/store"
)

func RunUpdate(ctx context.Context, args []string, s *store.Store) error {
	if len(args) == 0 {
		return fmt.Errorf("missing link ID. Usage: linkkeeper update <id> [--url U] [--title T] [--description D] [--add-tag X] [--rm-tag Y]")
	}

	link, err := s.GetLink(args[0])
	if err != nil {
		return fmt.Errorf("failed to get link: %w", err)
	}

	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	url := fs.String("url", "", "New URL")
	title := fs.String("title", "", "New title")
	description := fs.String("description", "", "New description")
	addTag := fs.String("add-tag", "", "Tag to add")
	rmTag := fs.String("rm-tag", "", "Tag to remove")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	changed := false
	if *url != "" && *url != link.URL {
		link.URL = *url
		changed = true
	}
	if *title != "" && *title != link.Title {
		link.Title = *title
		changed = true
	}
	if *description != "" && *description != link.Description {
		link.Description = *description
		changed = true
	}
	if *addTag != "" && !link.HasTag(*addTag) {
		link.AddTag(*addTag)
		changed = true
	}
	if *rmTag != "" && link.HasTag(*rmTag) {
		link.RemoveTag(*rmTag)
		changed = true
	}

	if !changed {
		fmt.Println("Nothing to update.")
		return nil
	}

	if err := s.UpdateLink(ctx, link); err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}

	fmt.Printf("Updated %s\n", link.ID)
	return nil
}
