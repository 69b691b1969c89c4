package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gigcity.app/catalog/internal/normalize"
)

// CandidateVenue is the record a scraper hands the core: a venues row
// minus the surrogate ID.
type CandidateVenue struct {
	Name      string   `json:"name"`
	Address   *string  `json:"address,omitempty"`
	City      *string  `json:"city,omitempty"`
	State     *string  `json:"state,omitempty"`
	Zip       *string  `json:"zip,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	VenueType *string  `json:"venue_type,omitempty"`
	Website   *string  `json:"website,omitempty"`
}

// VenueRef is the result of venue resolution.
type VenueRef struct {
	VenueID int64
	Name    string
	Created bool
}

// GetOrCreateVenue resolves a candidate venue to a surrogate ID: first by
// slug, then by exact name among active venues, else it inserts a new row.
func (p *Pool) GetOrCreateVenue(ctx context.Context, cand CandidateVenue) (VenueRef, error) {
	name := strings.TrimSpace(cand.Name)
	if name == "" {
		return VenueRef{}, fmt.Errorf("venue name is required")
	}
	slug := normalize.Slug(name)
	if slug == "" {
		return VenueRef{}, fmt.Errorf("venue name %q folds to an empty slug", name)
	}

	var ref VenueRef
	err := p.withRetry(ctx, "venue.get_or_create", func() error {
		const bySlug = `
SELECT venue_id, name
FROM catalog.venues
WHERE slug = $1
LIMIT 1
`
		err := p.QueryRow(ctx, bySlug, slug).Scan(&ref.VenueID, &ref.Name)
		if err == nil {
			ref.Created = false
			return nil
		}
		if !IsNoRows(err) {
			return fmt.Errorf("lookup venue by slug: %w", err)
		}

		const byName = `
SELECT venue_id, name
FROM catalog.venues
WHERE name = $1 AND active
ORDER BY venue_id
LIMIT 1
`
		err = p.QueryRow(ctx, byName, name).Scan(&ref.VenueID, &ref.Name)
		if err == nil {
			ref.Created = false
			return nil
		}
		if !IsNoRows(err) {
			return fmt.Errorf("lookup venue by name: %w", err)
		}

		const insert = `
INSERT INTO catalog.venues (
	name, slug, address, city, state, zip,
	latitude, longitude, venue_type, website,
	active, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, now(), now())
ON CONFLICT (slug) DO UPDATE SET updated_at = now()
RETURNING venue_id, name
`
		if err := p.QueryRow(ctx, insert,
			name, slug, cand.Address, cand.City, cand.State, cand.Zip,
			cand.Latitude, cand.Longitude, cand.VenueType, cand.Website,
		).Scan(&ref.VenueID, &ref.Name); err != nil {
			return fmt.Errorf("insert venue: %w", err)
		}
		ref.Created = true
		return nil
	})
	if err != nil {
		return VenueRef{}, err
	}
	return ref, nil
}

// GetVenue loads one venue row by ID.
func (p *Pool) GetVenue(ctx context.Context, venueID int64) (*Venue, error) {
	var v Venue
	err := p.withRetry(ctx, "venue.get", func() error {
		return p.scanVenue(
			p.QueryRow(ctx, venueSelectSQL+` WHERE venue_id = $1`, venueID),
			&v,
		)
	})
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("get venue %d: %w", venueID, err)
	}
	return &v, nil
}

// ListActiveVenues returns one keyset page of active venues ordered by ID.
// Callers loop until a short page, checking ctx between pages so a full
// catalog scan can be interrupted without a partial cluster applied.
func (p *Pool) ListActiveVenues(ctx context.Context, afterID int64, limit int) ([]Venue, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	var page []Venue
	err := p.withRetry(ctx, "venue.list_active", func() error {
		rows, err := p.Query(ctx,
			venueSelectSQL+` WHERE active AND venue_id > $1 ORDER BY venue_id LIMIT $2`,
			afterID, limit,
		)
		if err != nil {
			return fmt.Errorf("query active venues: %w", err)
		}
		defer rows.Close()

		page = page[:0]
		for rows.Next() {
			var v Venue
			if err := p.scanVenueRows(rows, &v); err != nil {
				return fmt.Errorf("scan venue row: %w", err)
			}
			page = append(page, v)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate venue rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// VenueEventCount pairs a venue with its attached-event count.
type VenueEventCount struct {
	VenueID    int64
	EventCount int64
}

// EventCountsByVenuePage returns one keyset page of attached-event counts,
// ordered by venue ID, covering only venues with at least one event.
// Callers loop until a short page, same as ListActiveVenues.
func (p *Pool) EventCountsByVenuePage(ctx context.Context, afterVenueID int64, limit int) ([]VenueEventCount, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	var page []VenueEventCount
	err := p.withRetry(ctx, "venue.event_counts", func() error {
		const q = `
SELECT venue_id, COUNT(*)::BIGINT
FROM catalog.events
WHERE venue_id IS NOT NULL AND venue_id > $1 AND deleted_at IS NULL
GROUP BY venue_id
ORDER BY venue_id
LIMIT $2
`
		rows, err := p.Query(ctx, q, afterVenueID, limit)
		if err != nil {
			return fmt.Errorf("query event counts: %w", err)
		}
		defer rows.Close()

		page = page[:0]
		for rows.Next() {
			var c VenueEventCount
			if err := rows.Scan(&c.VenueID, &c.EventCount); err != nil {
				return fmt.Errorf("scan event count row: %w", err)
			}
			page = append(page, c)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate event count rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// VenueNameRef is the slim row returned by token searches.
type VenueNameRef struct {
	VenueID int64
	Name    string
}

// FindActiveVenuesByNameToken returns active venues whose name contains the
// token, case-insensitively. Used by sibling resolution to collect a
// multi-room complex's family.
func (p *Pool) FindActiveVenuesByNameToken(ctx context.Context, token string) ([]VenueNameRef, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, fmt.Errorf("token is required")
	}

	var refs []VenueNameRef
	err := p.withRetry(ctx, "venue.find_by_token", func() error {
		const q = `
SELECT venue_id, name
FROM catalog.venues
WHERE active AND lower(name) LIKE '%' || lower($1) || '%'
ORDER BY venue_id
`
		rows, err := p.Query(ctx, q, trimmed)
		if err != nil {
			return fmt.Errorf("query venues by token: %w", err)
		}
		defer rows.Close()

		refs = refs[:0]
		for rows.Next() {
			var ref VenueNameRef
			if err := rows.Scan(&ref.VenueID, &ref.Name); err != nil {
				return fmt.Errorf("scan venue ref: %w", err)
			}
			refs = append(refs, ref)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate venue refs: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// DeactivateVenue retires a venue with an audit reason. Idempotent: an
// already-inactive venue is left untouched.
func (p *Pool) DeactivateVenue(ctx context.Context, venueID int64, reason string) error {
	return p.withRetry(ctx, "venue.deactivate", func() error {
		const q = `
UPDATE catalog.venues
SET active = FALSE,
    deactivation_reason = $2,
    deactivated_at = now(),
    updated_at = now()
WHERE venue_id = $1 AND active
`
		if _, err := p.Exec(ctx, q, venueID, reason); err != nil {
			return fmt.Errorf("deactivate venue %d: %w", venueID, err)
		}
		return nil
	})
}

// AbsorbLoserVenue moves every event off the loser onto the keeper and
// deactivates the loser, in one transaction so no event is ever left
// attached to a merged-away inactive venue.
func (p *Pool) AbsorbLoserVenue(ctx context.Context, keeperID, loserID int64, reason string) (int64, error) {
	if keeperID == loserID {
		return 0, fmt.Errorf("keeper and loser are the same venue %d", keeperID)
	}

	var moved int64
	err := p.withRetry(ctx, "venue.absorb_loser", func() error {
		tx, err := p.BeginTx(ctx)
		if err != nil {
			return fmt.Errorf("begin merge tx: %w", err)
		}

		const reassign = `
UPDATE catalog.events
SET venue_id = $1, updated_at = now()
WHERE venue_id = $2 AND deleted_at IS NULL
`
		moved, err = tx.Exec(ctx, reassign, keeperID, loserID)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("reassign events from venue %d: %w", loserID, err)
		}

		const retire = `
UPDATE catalog.venues
SET active = FALSE,
    deactivation_reason = $2,
    deactivated_at = now(),
    updated_at = now()
WHERE venue_id = $1 AND active
`
		if _, err := tx.Exec(ctx, retire, loserID, reason); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("retire venue %d: %w", loserID, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit merge tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

// backfillColumns is the allow-list for BackfillVenueFields. Every write
// goes through COALESCE so a populated keeper value is never overwritten.
var backfillColumns = map[string]struct{}{
	"address":         {},
	"city":            {},
	"state":           {},
	"zip":             {},
	"latitude":        {},
	"longitude":       {},
	"venue_type":      {},
	"website":         {},
	"phone":           {},
	"instagram":       {},
	"description":     {},
	"image_url":       {},
	"neighborhood":    {},
	"hours":           {},
	"menu_url":        {},
	"reservation_url": {},
	"vibes":           {},
}

// BackfillVenueFields fills the keeper's empty enrichment columns with the
// provided values. Unknown columns are rejected.
func (p *Pool) BackfillVenueFields(ctx context.Context, venueID int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	set := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	args = append(args, venueID)
	argPos := 2
	for col, val := range fields {
		if _, ok := backfillColumns[col]; !ok {
			return fmt.Errorf("column %q is not backfillable", col)
		}
		if vs, ok := val.([]string); ok {
			encoded, err := json.Marshal(vs)
			if err != nil {
				return fmt.Errorf("encode %s: %w", col, err)
			}
			val = string(encoded)
		}
		set = append(set, fmt.Sprintf("%s = COALESCE(%s, $%d)", col, col, argPos))
		args = append(args, val)
		argPos++
	}
	set = append(set, "updated_at = now()")

	query := fmt.Sprintf(
		"UPDATE catalog.venues SET %s WHERE venue_id = $1",
		strings.Join(set, ", "),
	)

	return p.withRetry(ctx, "venue.backfill", func() error {
		if _, err := p.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("backfill venue %d: %w", venueID, err)
		}
		return nil
	})
}

const venueSelectSQL = `
SELECT
	venue_id, venue_uuid::text, name, slug, address, city, state, zip,
	latitude, longitude, venue_type, website, phone, instagram,
	description, image_url, neighborhood, hours, menu_url,
	reservation_url, vibes, active, deactivation_reason, deactivated_at,
	created_at, updated_at
FROM catalog.venues`

type venueScanner interface {
	Scan(dest ...any) error
}

func (p *Pool) scanVenue(row *Row, v *Venue) error {
	return scanVenueInto(row, v)
}

func (p *Pool) scanVenueRows(rows *Rows, v *Venue) error {
	return scanVenueInto(rows, v)
}

func scanVenueInto(s venueScanner, v *Venue) error {
	var vibes []byte
	var deactivatedAt *time.Time
	if err := s.Scan(
		&v.VenueID, &v.VenueUUID, &v.Name, &v.Slug, &v.Address, &v.City,
		&v.State, &v.Zip, &v.Latitude, &v.Longitude, &v.VenueType,
		&v.Website, &v.Phone, &v.Instagram, &v.Description, &v.ImageURL,
		&v.Neighborhood, &v.Hours, &v.MenuURL, &v.ReservationURL, &vibes,
		&v.Active, &v.DeactivationReason, &deactivatedAt,
		&v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return err
	}
	v.DeactivatedAt = deactivatedAt
	if len(vibes) > 0 {
		if err := json.Unmarshal(vibes, &v.Vibes); err != nil {
			return fmt.Errorf("decode vibes: %w", err)
		}
	}
	return nil
}
