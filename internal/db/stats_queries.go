package db

import (
	"context"
	"fmt"
	"time"
)

// CatalogStats is the read model for the stats command and /api/stats.
type CatalogStats struct {
	ActiveVenues    int64      `json:"active_venues"`
	InactiveVenues  int64      `json:"inactive_venues"`
	Events          int64      `json:"events"`
	EventSeries     int64      `json:"event_series"`
	Sources         int64      `json:"sources"`
	CrawlsCompleted int64      `json:"crawls_completed"`
	CrawlsFailed    int64      `json:"crawls_failed"`
	LastCrawlAt     *time.Time `json:"last_crawl_at,omitempty"`
}

// GetCatalogStats returns catalog-wide counts in one round trip.
func (p *Pool) GetCatalogStats(ctx context.Context) (CatalogStats, error) {
	var stats CatalogStats
	err := p.withRetry(ctx, "stats.catalog", func() error {
		const q = `
SELECT
	(SELECT COUNT(*) FROM catalog.venues WHERE active),
	(SELECT COUNT(*) FROM catalog.venues WHERE NOT active),
	(SELECT COUNT(*) FROM catalog.events WHERE deleted_at IS NULL),
	(SELECT COUNT(*) FROM catalog.event_series),
	(SELECT COUNT(*) FROM catalog.sources),
	(SELECT COUNT(*) FROM catalog.crawl_logs WHERE status = 'completed'),
	(SELECT COUNT(*) FROM catalog.crawl_logs WHERE status = 'failed'),
	(SELECT MAX(completed_at) FROM catalog.crawl_logs)
`
		if err := p.QueryRow(ctx, q).Scan(
			&stats.ActiveVenues,
			&stats.InactiveVenues,
			&stats.Events,
			&stats.EventSeries,
			&stats.Sources,
			&stats.CrawlsCompleted,
			&stats.CrawlsFailed,
			&stats.LastCrawlAt,
		); err != nil {
			return fmt.Errorf("query catalog stats: %w", err)
		}
		return nil
	})
	if err != nil {
		return CatalogStats{}, err
	}
	return stats, nil
}
