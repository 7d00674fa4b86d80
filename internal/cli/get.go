package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/viixen/nix-client/internal/entities"
)

// GetCommand fetches a single content item by slug and prints it as JSON.
type GetCommand struct {
	ContentType   string
	Slug          string
	BaseURL       string
	DatabasePath  string
	DownloadCover bool
	WithComments  bool
}

func NewGetCommand() *GetCommand {
	return &GetCommand{}
}

func (cmd *GetCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)

	fs.StringVar(&cmd.ContentType, "type", "articles", "Content type: articles, books, mangas, categories or users")
	fs.StringVar(&cmd.Slug, "slug", "", "Slug of the item to fetch (required)")
	fs.StringVar(&cmd.BaseURL, "url", "", "API base URL (overrides API_BASE_URL)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the local state database")
	fs.BoolVar(&cmd.DownloadCover, "cover", false, "Download the cover image into the media cache")
	fs.BoolVar(&cmd.WithComments, "comments", false, "Also print the item's comments")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s get -slug <slug> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Fetch one item by slug. Recently fetched items are served from the local\n")
		fmt.Fprintf(os.Stderr, "cache; locally edited items are returned even when the server is down.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Slug == "" {
		return fmt.Errorf("required flag -slug not provided")
	}

	return nil
}

func (cmd *GetCommand) Run() error {
	app, err := buildApp(cmd.BaseURL, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()

	var (
		item     any
		coverURL string
	)

	switch cmd.ContentType {
	case "articles":
		a, err := app.Articles.GetBySlug(ctx, cmd.Slug)
		if err != nil {
			return err
		}
		item, coverURL = a, a.CoverImage
	case "books":
		b, err := app.Books.GetBySlug(ctx, cmd.Slug)
		if err != nil {
			return err
		}
		item, coverURL = b, b.CoverImage
	case "mangas":
		m, err := app.Mangas.GetBySlug(ctx, cmd.Slug)
		if err != nil {
			return err
		}
		item, coverURL = m, m.CoverImage
	case "categories":
		c, err := app.Categories.GetBySlug(ctx, cmd.Slug)
		if err != nil {
			return err
		}
		item = c
	case "users":
		u, err := app.Users.GetBySlug(ctx, cmd.Slug)
		if err != nil {
			return err
		}
		item = u
	default:
		return fmt.Errorf("unknown content type: %s", cmd.ContentType)
	}

	out, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format item: %w", err)
	}
	fmt.Println(string(out))

	if cmd.WithComments {
		var comments []entities.Comment
		switch cmd.ContentType {
		case "articles":
			comments, err = app.Articles.Comments(ctx, cmd.Slug)
		case "books":
			comments, err = app.Books.Comments(ctx, cmd.Slug)
		case "mangas":
			comments, err = app.Mangas.Comments(ctx, cmd.Slug)
		default:
			err = fmt.Errorf("comments are not available for %s", cmd.ContentType)
		}
		if err != nil {
			return err
		}
		fmt.Printf("\n%d comments:\n", len(comments))
		for _, c := range comments {
			fmt.Printf("  [%s] %s: %s\n", c.CreatedAt.Format("2006-01-02"), c.Name, c.Text)
		}
	}

	if cmd.DownloadCover {
		if coverURL == "" {
			fmt.Println("\nNo cover image to download")
			return nil
		}
		path, err := app.Media.Get(ctx, cmd.Slug, coverURL)
		if err != nil {
			return fmt.Errorf("failed to download cover: %w", err)
		}
		fmt.Printf("\nCover saved to: %s\n", path)
	}

	return nil
}
