package cli

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
)

// ListCommand lists content of a given type, merging local edits with
// whatever the server returns.
type ListCommand struct {
	ContentType  string
	BaseURL      string
	DatabasePath string
	Category     string
	Search       string
}

func NewListCommand() *ListCommand {
	return &ListCommand{}
}

func (cmd *ListCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)

	fs.StringVar(&cmd.ContentType, "type", "articles", "Content type: articles, books, mangas, categories or users")
	fs.StringVar(&cmd.BaseURL, "url", "", "API base URL (overrides API_BASE_URL)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the local state database")
	fs.StringVar(&cmd.Category, "category", "", "Filter by category slug")
	fs.StringVar(&cmd.Search, "search", "", "Full-text search query")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s list [-type articles] [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List content. Local edits are merged into the server response; when the\n")
		fmt.Fprintf(os.Stderr, "server is unreachable the locally stored items are shown instead.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *ListCommand) Run() error {
	app, err := buildApp(cmd.BaseURL, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	query := url.Values{}
	if cmd.Category != "" {
		query.Set("category", cmd.Category)
	}
	if cmd.Search != "" {
		query.Set("search", cmd.Search)
	}

	ctx := context.Background()

	switch cmd.ContentType {
	case "articles":
		items, err := app.Articles.List(ctx, query)
		if err != nil {
			return err
		}
		for _, a := range items {
			printRow(a.Slug, a.Title, fmt.Sprintf("%d views", a.ViewsCount))
		}
		fmt.Printf("\n%d articles\n", len(items))
	case "books":
		items, err := app.Books.List(ctx, query)
		if err != nil {
			return err
		}
		for _, b := range items {
			printRow(b.Slug, b.Title, b.Author)
		}
		fmt.Printf("\n%d books\n", len(items))
	case "mangas":
		items, err := app.Mangas.List(ctx, query)
		if err != nil {
			return err
		}
		for _, m := range items {
			printRow(m.Slug, m.Title, fmt.Sprintf("%d chapters", m.ChaptersCount))
		}
		fmt.Printf("\n%d mangas\n", len(items))
	case "categories":
		items, err := app.Categories.List(ctx, query)
		if err != nil {
			return err
		}
		for _, c := range items {
			printRow(c.Slug, c.Name, "")
		}
		fmt.Printf("\n%d categories\n", len(items))
	case "users":
		items, err := app.Users.List(ctx, query)
		if err != nil {
			return err
		}
		for _, u := range items {
			printRow(u.Slug, u.Username, u.Email)
		}
		fmt.Printf("\n%d users\n", len(items))
	default:
		return fmt.Errorf("unknown content type: %s", cmd.ContentType)
	}

	return nil
}

func printRow(slug, title, extra string) {
	if extra != "" {
		fmt.Printf("  %-32s %s (%s)\n", slug, title, extra)
	} else {
		fmt.Printf("  %-32s %s\n", slug, title)
	}
}
