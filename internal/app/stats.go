package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gigcity.app/catalog/internal/cli"
)

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "stats does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, _, _, pool, err := connect(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	stats, err := pool.GetCatalogStats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query catalog stats: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(stats); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	lastCrawl := ""
	if stats.LastCrawlAt != nil {
		lastCrawl = stats.LastCrawlAt.UTC().Format(time.RFC3339)
	}
	rows := [][]string{
		{"active_venues", fmt.Sprintf("%d", stats.ActiveVenues)},
		{"inactive_venues", fmt.Sprintf("%d", stats.InactiveVenues)},
		{"events", fmt.Sprintf("%d", stats.Events)},
		{"event_series", fmt.Sprintf("%d", stats.EventSeries)},
		{"sources", fmt.Sprintf("%d", stats.Sources)},
		{"crawls_completed", fmt.Sprintf("%d", stats.CrawlsCompleted)},
		{"crawls_failed", fmt.Sprintf("%d", stats.CrawlsFailed)},
		{"last_crawl_at", lastCrawl},
	}
	if err := writeTable([]string{"metric", "value"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}

	return 0
}
