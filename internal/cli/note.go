package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/iudanet/linkkeeper/internal/store"
)

func RunNote(ctx context.Context, args []string, s *store.Store) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. Usage: linkkeeper note <add|edit|rm> ...")
	}

	switch args[0] {
	case "add":
		return runNoteAdd(ctx, args[1:], s)
	case "edit":
		return runNoteEdit(ctx, args[1:], s)
	case "rm", "remove", "delete":
		return runNoteRemove(ctx, args[1:], s)
	default:
		return fmt.Errorf("unknown note subcommand: %s. Use: add, edit, or rm", args[0])
	}
}

func runNoteAdd(ctx context.Context, args []string, s *store.Store) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: linkkeeper note add <link-id> [--title T] <body>")
	}

	linkID := args[0]
	fs := flag.NewFlagSet("note add", flag.ContinueOnError)
	title := fs.String("title", "", "Note title")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	body := strings.Join(fs.Args(), " ")

	note, err := s.AddNote(ctx, linkID, *title, body)
	if err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}

	fmt.Printf("Added note %s\n", note.ID)
	return nil
}

func runNoteEdit(ctx context.Context, args []string, s *store.Store) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: linkkeeper note edit <link-id> <note-id> [--title T] <body>")
	}

	linkID, noteID := args[0], args[1]
	fs := flag.NewFlagSet("note edit", flag.ContinueOnError)
	title := fs.String("title", "", "Note title")
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}
	body := strings.Join(fs.Args(), " ")

	newTitle := *title
	titleSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "title" {
			titleSet = true
		}
	})
	if !titleSet {
		// Без явного --title текущий заголовок заметки сохраняется
		link, err := s.GetLink(linkID)
		if err != nil {
			return fmt.Errorf("failed to edit note: %w", err)
		}
		for _, n := range link.Notes {
			if n.ID == noteID {
				newTitle = n.Title
				break
			}
		}
	}

	if err := s.UpdateNote(ctx, linkID, noteID, newTitle, body); err != nil {
		return fmt.Errorf("failed to edit note: %w", err)
	}

	fmt.Printf("Updated note %s\n", noteID)
	return nil
}

func runNoteRemove(ctx context.Context, args []string, s *store.Store) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: linkkeeper note rm <link-id> <note-id>")
	}

	if err := s.DeleteNote(ctx, args[0], args[1]); err != nil {
		return fmt.Errorf("failed to remove note: %w", err)
	}

	fmt.Printf("Removed note %s\n", args[1])
	return nil
}
