package db

import (
	"context"
	"fmt"
	"time"
)

const maxCrawlErrorLength = 4000

// StartCrawl opens a crawl_logs row for one reconcile batch.
func (p *Pool) StartCrawl(ctx context.Context, sourceID int64, startedAt time.Time) (int64, error) {
	var crawlID int64
	err := p.withRetry(ctx, "crawl.start", func() error {
		const q = `
INSERT INTO catalog.crawl_logs (source_id, started_at, status, created_at)
VALUES ($1, $2, 'running', now())
RETURNING crawl_log_id
`
		if err := p.QueryRow(ctx, q, sourceID, startedAt.UTC()).Scan(&crawlID); err != nil {
			return fmt.Errorf("insert crawl log: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return crawlID, nil
}

// CrawlTotals summarizes one reconcile batch for the crawl ledger.
type CrawlTotals struct {
	EventsFound   int
	EventsNew     int
	EventsUpdated int
}

// FinishCrawl closes a crawl_logs row. A non-nil runErr marks the run
// failed and records a truncated message.
func (p *Pool) FinishCrawl(ctx context.Context, crawlID int64, totals CrawlTotals, runErr error, completedAt time.Time) error {
	status := "completed"
	var message *string
	if runErr != nil {
		status = "failed"
		text := runErr.Error()
		if len(text) > maxCrawlErrorLength {
			text = text[:maxCrawlErrorLength]
		}
		message = &text
	}

	return p.withRetry(ctx, "crawl.finish", func() error {
		const q = `
UPDATE catalog.crawl_logs
SET completed_at = $2,
    status = $3,
    events_found = $4,
    events_new = $5,
    events_updated = $6,
    error_message = $7
WHERE crawl_log_id = $1
`
		if _, err := p.Exec(ctx, q, crawlID, completedAt.UTC(), status,
			totals.EventsFound, totals.EventsNew, totals.EventsUpdated, message); err != nil {
			return fmt.Errorf("finish crawl log %d: %w", crawlID, err)
		}
		return nil
	})
}
