package db

import (
	"context"
	"fmt"
)

// FindEventByContentHash returns the event carrying the fingerprint, or
// ErrNoRows when no observation of that identity tuple exists yet.
func (p *Pool) FindEventByContentHash(ctx context.Context, hash []byte) (*Event, error) {
	if len(hash) == 0 {
		return nil, fmt.Errorf("content hash is required")
	}

	var ev Event
	err := p.withRetry(ctx, "event.find_by_hash", func() error {
		return p.gdb.WithContext(ctx).
			Where("content_hash = ? AND deleted_at IS NULL", hash).
			First(&ev).Error
	})
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("find event by content hash: %w", err)
	}
	return &ev, nil
}

// ListEventsByVenuesAndDate returns events on one start date across a set
// of venues. The reconciler uses it with a sibling family to catch a show
// filed under a different room of the same complex.
func (p *Pool) ListEventsByVenuesAndDate(ctx context.Context, venueIDs []int64, startDate string) ([]Event, error) {
	if len(venueIDs) == 0 {
		return nil, nil
	}

	var events []Event
	err := p.withRetry(ctx, "event.list_by_venues_date", func() error {
		events = events[:0]
		return p.gdb.WithContext(ctx).
			Where("venue_id IN ? AND start_date = ? AND deleted_at IS NULL", venueIDs, startDate).
			Order("event_id").
			Find(&events).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list events by venues and date: %w", err)
	}
	return events, nil
}

// InsertEvent persists a new event. A Conflict error means another
// observation of the same fingerprint won the race; callers re-fetch and
// merge instead of failing.
func (p *Pool) InsertEvent(ctx context.Context, ev *Event) error {
	if ev == nil {
		return fmt.Errorf("event is nil")
	}
	return p.withRetry(ctx, "event.insert", func() error {
		return p.gdb.WithContext(ctx).Create(ev).Error
	})
}

// UpdateEvent writes back a merged event row. Identity columns are pinned
// in the WHERE clause so the content hash can never drift.
func (p *Pool) UpdateEvent(ctx context.Context, ev *Event) error {
	if ev == nil {
		return fmt.Errorf("event is nil")
	}
	if ev.EventID == 0 {
		return fmt.Errorf("event ID is required for update")
	}
	return p.withRetry(ctx, "event.update", func() error {
		res := p.gdb.WithContext(ctx).
			Model(&Event{}).
			Where("event_id = ? AND content_hash = ?", ev.EventID, ev.ContentHash).
			Select(
				"venue_id", "title", "description",
				"start_time", "end_date", "end_time", "is_all_day",
				"category", "subcategory", "tags",
				"price_min", "price_max", "is_free",
				"source_url", "ticket_url", "image_url",
				"series_id", "extraction_confidence", "updated_at",
			).
			Updates(ev)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoRows
		}
		return nil
	})
}
