package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gigcity.app/catalog/internal/classify"
	"gigcity.app/catalog/internal/cli"
	"gigcity.app/catalog/internal/dedupe"
)

func runVenues(args []string) int {
	fs := flag.NewFlagSet("venues", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")
	dryRun := fs.Bool("dry-run", false, "Report planned changes without writing")
	doSweep := fs.Bool("deactivate", false, "Deactivate non-destination venues with zero events")
	doMerge := fs.Bool("merge-dupes", false, "Merge duplicate venue clusters")
	doAll := fs.Bool("all", false, "Run deactivation then duplicate merge")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "venues does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	sweep := *doSweep || *doAll
	merge := *doMerge || *doAll
	// Bare invocation previews everything instead of writing.
	if !sweep && !merge {
		sweep, merge = true, true
		*dryRun = true
	}

	ctx, cancel, cfg, logger, pool, err := connect(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	report := venuesReport{DryRun: *dryRun}

	if sweep {
		sweeper := dedupe.NewSweeper(pool, classify.New(classify.DefaultRules()), logger, cfg.ScanPageSize)
		plan, err := sweeper.Plan(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("sweep planning failed")
			fmt.Fprintf(os.Stderr, "Failed to plan deactivation sweep: %v\n", err)
			return 1
		}
		report.Sweep = plan
		if !*dryRun {
			sum, err := sweeper.Execute(ctx, plan)
			if err != nil {
				logger.Error().Err(err).Msg("sweep execution failed")
				fmt.Fprintf(os.Stderr, "Deactivation sweep failed: %v\n", err)
				return 1
			}
			report.SweepSummary = &sum
		}
	}

	if merge {
		// Clusters are computed after the sweep so retired venues never
		// join one.
		exec := dedupe.NewMergeExecutor(pool, logger, cfg.ScanPageSize)
		plans, err := exec.Plan(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("merge planning failed")
			fmt.Fprintf(os.Stderr, "Failed to plan duplicate merge: %v\n", err)
			return 1
		}
		report.Merge = plans
		if !*dryRun {
			sum, err := exec.Execute(ctx, plans)
			if err != nil {
				logger.Error().Err(err).Msg("merge execution failed")
				fmt.Fprintf(os.Stderr, "Duplicate merge failed: %v\n", err)
				return 1
			}
			report.MergeSummary = &sum
		}
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(report); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	if err := report.renderTables(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render tables: %v\n", err)
		return 1
	}

	// Per-venue and per-cluster failures are reported in the summaries;
	// only a run that could not execute at all exits non-zero.
	return 0
}

type venuesReport struct {
	DryRun       bool                 `json:"dry_run"`
	Sweep        *dedupe.SweepPlan    `json:"sweep,omitempty"`
	SweepSummary *dedupe.SweepSummary `json:"sweep_summary,omitempty"`
	Merge        []dedupe.ClusterPlan `json:"merge,omitempty"`
	MergeSummary *dedupe.MergeSummary `json:"merge_summary,omitempty"`
}

func (r *venuesReport) renderTables() error {
	if r.Sweep != nil {
		rows := make([][]string, 0, len(r.Sweep.Deactivate)+len(r.Sweep.Protected))
		for _, cand := range r.Sweep.Deactivate {
			rows = append(rows, []string{
				fmt.Sprintf("%d", cand.VenueID), cand.Name, cand.Reason, "deactivate",
			})
		}
		for _, cand := range r.Sweep.Protected {
			rows = append(rows, []string{
				fmt.Sprintf("%d", cand.VenueID), cand.Name, cand.Reason,
				fmt.Sprintf("protected (%d events)", cand.EventCount),
			})
		}
		if len(rows) == 0 {
			fmt.Println("sweep: no non-destination venues found")
		} else if err := writeTable([]string{"venue_id", "name", "reason", "action"}, rows); err != nil {
			return err
		}
		if r.SweepSummary != nil {
			fmt.Printf("sweep: deactivated=%d protected=%d failed=%d\n",
				r.SweepSummary.Deactivated, r.SweepSummary.Protected, r.SweepSummary.Failed)
		}
		fmt.Println()
	}

	if r.Merge != nil {
		rows := make([][]string, 0, len(r.Merge))
		for _, plan := range r.Merge {
			rows = append(rows, []string{
				fmt.Sprintf("%d", plan.KeeperID),
				plan.KeeperName,
				fmt.Sprintf("%d", len(plan.Losers)),
				fmt.Sprintf("%d", plan.EventsToMove),
				fmt.Sprintf("%d", len(plan.Backfill)),
			})
		}
		if len(rows) == 0 {
			fmt.Println("merge: no duplicate clusters found")
		} else if err := writeTable(
			[]string{"keeper_id", "keeper_name", "losers", "events_to_move", "backfills"}, rows,
		); err != nil {
			return err
		}
		if r.MergeSummary != nil {
			fmt.Printf("merge: clusters=%d retired=%d events_moved=%d fields_filled=%d failed=%d\n",
				r.MergeSummary.Clusters, r.MergeSummary.VenuesRetired, r.MergeSummary.EventsMoved,
				r.MergeSummary.FieldsFilled, r.MergeSummary.ClustersFailed)
		}
	}
	return nil
}
