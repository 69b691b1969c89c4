// Package reconcile decides, for every candidate event a scraper hands
// the core, whether it is a brand-new event, a re-observation of a known
// one, or junk to skip. The catalog ends up with one row per real-world
// occurrence no matter how many sources report it.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"gigcity.app/catalog/internal/db"
	"gigcity.app/catalog/internal/fingerprint"
	"gigcity.app/catalog/internal/normalize"
)

// Store is the slice of the data store the reconciler writes through.
// *db.Pool implements it; tests substitute an in-memory fake.
type Store interface {
	GetOrCreateVenue(ctx context.Context, cand db.CandidateVenue) (db.VenueRef, error)
	FindEventByContentHash(ctx context.Context, hash []byte) (*db.Event, error)
	ListEventsByVenuesAndDate(ctx context.Context, venueIDs []int64, startDate string) ([]db.Event, error)
	InsertEvent(ctx context.Context, ev *db.Event) error
	UpdateEvent(ctx context.Context, ev *db.Event) error
	GetOrCreateSeries(ctx context.Context, venueID *int64, hint db.SeriesHint) (int64, error)
}

// SiblingResolver widens a venue to its multi-room family.
type SiblingResolver interface {
	ResolveIDs(ctx context.Context, venueID int64) ([]int64, error)
}

// Outcome is the per-candidate result.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// Result reports what happened to one candidate.
type Result struct {
	Outcome Outcome
	EventID int64
	Reason  string
}

// Summary accumulates a batch's results.
type Summary struct {
	Found    int `json:"found"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Reconciler runs the insert-or-update state machine for one source.
type Reconciler struct {
	store    Store
	siblings SiblingResolver
	logger   zerolog.Logger
	sourceID int64
	opts     SourceOptions
}

// New builds a Reconciler for one source. siblings may be nil when the
// source never needs family-aware lookup.
func New(store Store, siblings SiblingResolver, logger zerolog.Logger, sourceID int64, opts SourceOptions) *Reconciler {
	return &Reconciler{
		store:    store,
		siblings: siblings,
		logger:   logger,
		sourceID: sourceID,
		opts:     opts,
	}
}

// ReconcileBatch runs every candidate through ReconcileOne. One bad record
// never aborts the batch: failures are logged, counted, and skipped over.
func (r *Reconciler) ReconcileBatch(ctx context.Context, cands []CandidateEvent) Summary {
	var sum Summary
	sum.Found = len(cands)
	for i := range cands {
		res, err := r.ReconcileOne(ctx, &cands[i])
		if err != nil {
			sum.Failed++
			r.logger.Error().
				Err(err).
				Str("title", cands[i].Title).
				Str("start_date", cands[i].StartDate).
				Msg("reconcile failed for candidate")
			continue
		}
		switch res.Outcome {
		case OutcomeInserted:
			sum.Inserted++
		case OutcomeUpdated:
			sum.Updated++
		case OutcomeSkipped:
			sum.Skipped++
			r.logger.Debug().
				Str("title", cands[i].Title).
				Str("reason", res.Reason).
				Msg("candidate skipped")
		}
	}
	return sum
}

// ReconcileOne applies the per-candidate state machine: validate,
// fingerprint, exact lookup, optional sibling-widened lookup, then insert
// with conflict fallback into the merge path.
func (r *Reconciler) ReconcileOne(ctx context.Context, cand *CandidateEvent) (Result, error) {
	if reason, ok := cand.Validate(); !ok {
		return Result{Outcome: OutcomeSkipped, Reason: reason}, nil
	}

	venueID, venueName, err := r.resolveVenue(ctx, cand)
	if err != nil {
		return Result{}, fmt.Errorf("resolve venue: %w", err)
	}

	if strings.TrimSpace(venueName) == "" {
		// Still hashable, but worth surfacing upstream.
		r.logger.Warn().
			Str("title", cand.Title).
			Str("start_date", cand.StartDate).
			Msg("candidate has no venue name, fingerprinting without one")
	}

	hash := r.fingerprint(cand, venueName)

	existing, err := r.store.FindEventByContentHash(ctx, hash)
	switch {
	case err == nil:
		return r.update(ctx, existing, cand, venueID)
	case db.IsNoRows(err):
		// fall through to the widened lookup
	default:
		return Result{}, fmt.Errorf("lookup by fingerprint: %w", err)
	}

	if r.opts.WidenToSiblings && r.siblings != nil && venueID != nil {
		match, err := r.findSiblingMatch(ctx, cand, *venueID)
		if err != nil {
			return Result{}, fmt.Errorf("sibling lookup: %w", err)
		}
		if match != nil {
			return r.update(ctx, match, cand, venueID)
		}
	}

	return r.insert(ctx, cand, venueID, hash)
}

func (r *Reconciler) fingerprint(cand *CandidateEvent, venueName string) []byte {
	if r.opts.ShowtimeKeys && cand.StartTime != nil && strings.TrimSpace(*cand.StartTime) != "" {
		return fingerprint.EventShowtime(cand.Title, venueName, cand.StartDate, *cand.StartTime)
	}
	return fingerprint.Event(cand.Title, venueName, cand.StartDate)
}

func (r *Reconciler) resolveVenue(ctx context.Context, cand *CandidateEvent) (*int64, string, error) {
	venue := cand.Venue
	if venue == nil {
		if strings.TrimSpace(cand.VenueName) == "" {
			return nil, "", nil // virtual event
		}
		venue = &db.CandidateVenue{Name: cand.VenueName}
	}

	ref, err := r.store.GetOrCreateVenue(ctx, *venue)
	if err != nil {
		return nil, "", err
	}
	return &ref.VenueID, ref.Name, nil
}

// findSiblingMatch looks for the same show filed under a different room of
// the same complex: identical normalized title, same date, any family
// venue. Anything looser than exact title equality is not high-confidence
// and falls through to insert.
func (r *Reconciler) findSiblingMatch(ctx context.Context, cand *CandidateEvent, venueID int64) (*db.Event, error) {
	family, err := r.siblings.ResolveIDs(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if len(family) <= 1 {
		return nil, nil
	}

	events, err := r.store.ListEventsByVenuesAndDate(ctx, family, strings.TrimSpace(cand.StartDate))
	if err != nil {
		return nil, err
	}

	wantTitle := normalize.Name(cand.Title)
	for i := range events {
		if normalize.Name(events[i].Title) == wantTitle {
			return &events[i], nil
		}
	}
	return nil, nil
}

func (r *Reconciler) update(ctx context.Context, existing *db.Event, cand *CandidateEvent, venueID *int64) (Result, error) {
	changed := MergeCandidate(existing, cand)

	// Venue attribution only fills, it never flips: reassignment is the
	// merge executor's job.
	if existing.VenueID == nil && venueID != nil {
		existing.VenueID = venueID
		changed = true
	}

	if !changed {
		return Result{Outcome: OutcomeUpdated, EventID: existing.EventID}, nil
	}

	if err := r.store.UpdateEvent(ctx, existing); err != nil {
		return Result{}, fmt.Errorf("update event %d: %w", existing.EventID, err)
	}
	return Result{Outcome: OutcomeUpdated, EventID: existing.EventID}, nil
}

func (r *Reconciler) insert(ctx context.Context, cand *CandidateEvent, venueID *int64, hash []byte) (Result, error) {
	ev := &db.Event{
		SourceID:             r.sourceID,
		VenueID:              venueID,
		Title:                strings.TrimSpace(cand.Title),
		Description:          cand.Description,
		StartDate:            strings.TrimSpace(cand.StartDate),
		StartTime:            cand.StartTime,
		EndDate:              cand.EndDate,
		EndTime:              cand.EndTime,
		Category:             cand.Category,
		Subcategory:          cand.Subcategory,
		Tags:                 cand.Tags,
		PriceMin:             cand.PriceMin,
		PriceMax:             cand.PriceMax,
		IsFree:               cand.IsFree,
		SourceURL:            cand.SourceURL,
		TicketURL:            cand.TicketURL,
		ImageURL:             cand.ImageURL,
		ContentHash:          hash,
		ExtractionConfidence: cand.ExtractionConfidence,
	}
	if cand.IsAllDay != nil {
		ev.IsAllDay = *cand.IsAllDay
	}

	if cand.IsFree == nil && cand.PriceMin == nil && cand.PriceMax == nil && r.opts.DefaultIsFree != nil {
		v := *r.opts.DefaultIsFree
		ev.IsFree = &v
	}

	if cand.Series != nil {
		seriesID, err := r.store.GetOrCreateSeries(ctx, venueID, *cand.Series)
		if err != nil {
			return Result{}, fmt.Errorf("resolve series: %w", err)
		}
		ev.SeriesID = &seriesID
		// Genre and tag fields live on the series for recurring shows;
		// the member event does not carry a divergent copy.
		ev.Category = nil
		ev.Subcategory = nil
		ev.Tags = nil
	}

	err := r.store.InsertEvent(ctx, ev)
	if err == nil {
		return Result{Outcome: OutcomeInserted, EventID: ev.EventID}, nil
	}
	if !db.IsConflict(err) {
		return Result{}, fmt.Errorf("insert event: %w", err)
	}

	// Lost the race to another observation of the same fingerprint. The
	// row exists now; merge into it.
	existing, ferr := r.store.FindEventByContentHash(ctx, hash)
	if ferr != nil {
		return Result{}, fmt.Errorf("insert conflicted but refetch failed: %w", ferr)
	}
	return r.update(ctx, existing, cand, venueID)
}
