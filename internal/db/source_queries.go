package db

import (
	"context"
	"fmt"
	"strings"
)

// GetOrCreateSource resolves a scraper slug to its surrogate ID.
func (p *Pool) GetOrCreateSource(ctx context.Context, slug, name string) (int64, error) {
	trimmedSlug := strings.TrimSpace(strings.ToLower(slug))
	if trimmedSlug == "" {
		return 0, fmt.Errorf("source slug is required")
	}
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		trimmedName = trimmedSlug
	}

	var sourceID int64
	err := p.withRetry(ctx, "source.get_or_create", func() error {
		const q = `
INSERT INTO catalog.sources (slug, name, is_active, created_at, updated_at)
VALUES ($1, $2, TRUE, now(), now())
ON CONFLICT (slug) DO UPDATE SET updated_at = now()
RETURNING source_id
`
		if err := p.QueryRow(ctx, q, trimmedSlug, trimmedName).Scan(&sourceID); err != nil {
			return fmt.Errorf("upsert source %q: %w", trimmedSlug, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sourceID, nil
}
