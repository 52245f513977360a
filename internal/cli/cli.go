// Package cli реализует команды консольного клиента linkkeeper.
package cli

import (
	"fmt"
	"strings"

	"github.com/iudanet/linkkeeper/internal/models"
)

func PrintUsage() {
	fmt.Println("Linkkeeper Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  linkkeeper [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version          Show version information")
	fmt.Println("  --config PATH      Path to config file (optional)")
	fmt.Println("  --data-dir PATH    Data directory (default: ~/.linkkeeper)")
	fmt.Println("  --relay URL        Relay websocket URL (enables sync)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init                          Create a new collection on this device")
	fmt.Println("  join <identity>               Join an existing collection by its identity")
	fmt.Println("  add <url>                     Add a new link")
	fmt.Println("  list                          List all links")
	fmt.Println("  get <id>                      Show full link details with notes")
	fmt.Println("  update <id>                   Update link fields")
	fmt.Println("  delete <id>                   Delete a link and its notes")
	fmt.Println("  note add <link-id> <body>     Attach a note to a link")
	fmt.Println("  note edit <link-id> <note-id> <body>")
	fmt.Println("  note rm <link-id> <note-id>   Remove a note")
	fmt.Println("  tag <tag>                     List links carrying a tag")
	fmt.Println("  tags                          List all tags with link counts")
	fmt.Println("  search <term>                 Search title, description and URL")
	fmt.Println("  sync                          Exchange operations with the relay once")
	fmt.Println("  status                        Show replica and sync status")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  linkkeeper init")
	fmt.Println("  linkkeeper add https://go.dev --title 'The Go site' --tags go,docs")
	fmt.Println("  linkkeeper list --tag go")
	fmt.Println("  linkkeeper note add b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5 'read later'")
	fmt.Println("  linkkeeper --relay ws://relay.example.com/sync sync")
	fmt.Println("  linkkeeper join 3QJmnh8Kduq5yjuTNvdzLQ")
}

// printLinkShort печатает ссылку одной карточкой в списке.
func printLinkShort(i int, link *models.Link) {
	fmt.Printf("%d. %s\n", i+1, link.Title)
	fmt.Printf("   ID:  %s\n", link.ID)
	fmt.Printf("   URL: %s\n", link.URL)
	if len(link.Tags) > 0 {
		fmt.Printf("   Tags: %s\n", strings.Join(link.Tags, ", "))
	}
	fmt.Println()
}

// splitTags разбирает список тегов вида "go,docs, web".
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
