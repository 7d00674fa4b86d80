package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/viixen/nix-client/internal/entities"
)

// StatsCommand prints the platform-wide statistics snapshot.
type StatsCommand struct {
	BaseURL      string
	DatabasePath string
}

func NewStatsCommand() *StatsCommand {
	return &StatsCommand{}
}

func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)

	fs.StringVar(&cmd.BaseURL, "url", "", "API base URL (overrides API_BASE_URL)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the local state database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s stats [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show global platform statistics. Results are cached locally, so repeated\n")
		fmt.Fprintf(os.Stderr, "calls within the cache TTL do not hit the server.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *StatsCommand) Run() error {
	app, err := buildApp(cmd.BaseURL, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	stats, err := app.Stats.Global(context.Background())
	if err != nil {
		return err
	}

	fmt.Println("Platform Statistics")
	fmt.Println("===================")
	fmt.Printf("Articles: %d items, %d views\n", stats.Articles.Total, stats.Articles.Views)
	fmt.Printf("Books:    %d items, %d views\n", stats.Books.Total, stats.Books.Views)
	fmt.Printf("Mangas:   %d items, %d views (%d chapters)\n", stats.Mangas.Total, stats.Mangas.Views, stats.Mangas.Chapters)
	fmt.Printf("Users:    %d total, %d active\n", stats.Users.Total, stats.Users.Active)
	fmt.Printf("Overall:  %d items, %d views\n", stats.General.TotalContent, stats.General.TotalViews)

	printMostViewed("articles", stats.Articles.MostViewed)
	printMostViewed("books", stats.Books.MostViewed)
	printMostViewed("mangas", stats.Mangas.MostViewed)

	return nil
}

func printMostViewed(label string, entries []entities.MostViewedEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Printf("\nMost viewed %s:\n", label)
	for i, entry := range entries {
		fmt.Printf("  %d. %s (%d views)\n", i+1, entry.Title, entry.ViewsCount)
	}
}
