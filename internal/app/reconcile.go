package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gigcity.app/catalog/internal/cli"
	"gigcity.app/catalog/internal/db"
	"gigcity.app/catalog/internal/reconcile"
	"gigcity.app/catalog/internal/siblings"
	payloadschema "gigcity.app/catalog/schema"
)

func runReconcile(args []string) int {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	file := fs.String("file", "", "Path to a scraper batch JSON file (required)")
	sourceOverride := fs.String("source", "", "Override the batch's source slug")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if strings.TrimSpace(*file) == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read batch file: %v\n", err)
		return 2
	}

	batch, err := payloadschema.ValidateBatchPayload(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid batch: %v\n", err)
		return 2
	}

	sourceSlug := strings.TrimSpace(strings.ToLower(batch.Source))
	if override := strings.TrimSpace(strings.ToLower(*sourceOverride)); override != "" {
		sourceSlug = override
	}

	ctx, cancel, _, logger, pool, err := connect(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	sourceID, err := pool.GetOrCreateSource(ctx, sourceSlug, sourceSlug)
	if err != nil {
		logger.Error().Err(err).Str("source", sourceSlug).Msg("source resolution failed")
		fmt.Fprintf(os.Stderr, "Failed to resolve source: %v\n", err)
		return 1
	}

	startedAt := time.Now().UTC()
	crawlID, err := pool.StartCrawl(ctx, sourceID, startedAt)
	if err != nil {
		logger.Error().Err(err).Str("source", sourceSlug).Msg("crawl log open failed")
		fmt.Fprintf(os.Stderr, "Failed to open crawl log: %v\n", err)
		return 1
	}

	opts := reconcile.OptionsForSource(sourceSlug)
	var resolver reconcile.SiblingResolver
	if opts.WidenToSiblings {
		resolver = siblings.New(pool, siblings.DefaultComplexes())
	}

	reconciler := reconcile.New(pool, resolver, logger, sourceID, opts)
	summary := reconciler.ReconcileBatch(ctx, batch.Events)

	totals := db.CrawlTotals{
		EventsFound:   summary.Found,
		EventsNew:     summary.Inserted,
		EventsUpdated: summary.Updated,
	}
	var runErr error
	if summary.Failed > 0 {
		runErr = fmt.Errorf("%d of %d candidates failed", summary.Failed, summary.Found)
	}
	if err := pool.FinishCrawl(ctx, crawlID, totals, runErr, time.Now().UTC()); err != nil {
		logger.Error().Err(err).Int64("crawl_id", crawlID).Msg("crawl log close failed")
	}

	logger.Info().
		Str("source", sourceSlug).
		Int("found", summary.Found).
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("reconcile batch finished")

	if outputFormat == outputFormatJSON {
		if err := printJSON(summary); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
	} else {
		rows := [][]string{
			{"found", fmt.Sprintf("%d", summary.Found)},
			{"inserted", fmt.Sprintf("%d", summary.Inserted)},
			{"updated", fmt.Sprintf("%d", summary.Updated)},
			{"skipped", fmt.Sprintf("%d", summary.Skipped)},
			{"failed", fmt.Sprintf("%d", summary.Failed)},
		}
		if err := writeTable([]string{"metric", "value"}, rows); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
			return 1
		}
	}

	// Per-record failures live in the summary and the crawl ledger; the
	// run itself completed.
	return 0
}
