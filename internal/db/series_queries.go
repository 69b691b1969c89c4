package db

import (
	"context"
	"fmt"
	"strings"

	"gigcity.app/catalog/internal/normalize"
)

// SeriesHint is the recurring-show hint a scraper may attach to a
// candidate event.
type SeriesHint struct {
	Title      string   `json:"title"`
	SeriesType string   `json:"series_type"`
	Frequency  *string  `json:"frequency,omitempty"`
	Category   *string  `json:"category,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// GetOrCreateSeries resolves a series hint against a venue, creating the
// series on first sight. The slug scopes the series to the venue so two
// venues can each run a "Trivia Night".
func (p *Pool) GetOrCreateSeries(ctx context.Context, venueID *int64, hint SeriesHint) (int64, error) {
	title := strings.TrimSpace(hint.Title)
	if title == "" {
		return 0, fmt.Errorf("series title is required")
	}
	seriesType := strings.TrimSpace(strings.ToLower(hint.SeriesType))
	if seriesType == "" {
		return 0, fmt.Errorf("series type is required")
	}

	slug := normalize.Slug(title)
	if venueID != nil {
		slug = fmt.Sprintf("%s-v%d", slug, *venueID)
	}

	var seriesID int64
	err := p.withRetry(ctx, "series.get_or_create", func() error {
		const bySlug = `
SELECT series_id FROM catalog.event_series WHERE slug = $1 LIMIT 1
`
		err := p.QueryRow(ctx, bySlug, slug).Scan(&seriesID)
		if err == nil {
			return nil
		}
		if !IsNoRows(err) {
			return fmt.Errorf("lookup series by slug: %w", err)
		}

		series := EventSeries{
			Slug:       slug,
			Title:      title,
			SeriesType: seriesType,
			Frequency:  hint.Frequency,
			VenueID:    venueID,
			Category:   hint.Category,
			Tags:       hint.Tags,
		}
		if err := p.gdb.WithContext(ctx).Create(&series).Error; err != nil {
			// A concurrent run may have created the slug between our
			// lookup and insert; fall back to the existing row.
			if IsConflict(err) {
				return p.QueryRow(ctx, bySlug, slug).Scan(&seriesID)
			}
			return fmt.Errorf("insert series: %w", err)
		}
		seriesID = series.SeriesID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seriesID, nil
}
