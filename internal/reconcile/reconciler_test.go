package reconcile

import (
	"bytes"
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"gigcity.app/catalog/internal/db"
)

type fakeStore struct {
	venues    map[string]int64 // slug-ish key: name
	nextVenue int64
	events    []*db.Event
	nextEvent int64
	series    map[string]int64
	nextSer   int64

	missFirstLookup bool
	insertCalls     int
	updateCalls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		venues: map[string]int64{},
		series: map[string]int64{},
	}
}

func (f *fakeStore) GetOrCreateVenue(_ context.Context, cand db.CandidateVenue) (db.VenueRef, error) {
	if id, ok := f.venues[cand.Name]; ok {
		return db.VenueRef{VenueID: id, Name: cand.Name}, nil
	}
	f.nextVenue++
	f.venues[cand.Name] = f.nextVenue
	return db.VenueRef{VenueID: f.nextVenue, Name: cand.Name, Created: true}, nil
}

func (f *fakeStore) FindEventByContentHash(_ context.Context, hash []byte) (*db.Event, error) {
	if f.missFirstLookup {
		f.missFirstLookup = false
		return nil, db.ErrNoRows
	}
	for _, ev := range f.events {
		if bytes.Equal(ev.ContentHash, hash) {
			copied := *ev
			return &copied, nil
		}
	}
	return nil, db.ErrNoRows
}

func (f *fakeStore) ListEventsByVenuesAndDate(_ context.Context, venueIDs []int64, startDate string) ([]db.Event, error) {
	var out []db.Event
	for _, ev := range f.events {
		if ev.VenueID == nil || ev.StartDate != startDate {
			continue
		}
		for _, id := range venueIDs {
			if *ev.VenueID == id {
				out = append(out, *ev)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) InsertEvent(_ context.Context, ev *db.Event) error {
	f.insertCalls++
	for _, existing := range f.events {
		if bytes.Equal(existing.ContentHash, ev.ContentHash) {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	f.nextEvent++
	ev.EventID = f.nextEvent
	copied := *ev
	f.events = append(f.events, &copied)
	return nil
}

func (f *fakeStore) UpdateEvent(_ context.Context, ev *db.Event) error {
	f.updateCalls++
	for i, existing := range f.events {
		if existing.EventID == ev.EventID {
			copied := *ev
			f.events[i] = &copied
			return nil
		}
	}
	return db.ErrNoRows
}

func (f *fakeStore) GetOrCreateSeries(_ context.Context, _ *int64, hint db.SeriesHint) (int64, error) {
	if id, ok := f.series[hint.Title]; ok {
		return id, nil
	}
	f.nextSer++
	f.series[hint.Title] = f.nextSer
	return f.nextSer, nil
}

type fakeSiblings struct {
	families map[int64][]int64
}

func (f *fakeSiblings) ResolveIDs(_ context.Context, venueID int64) ([]int64, error) {
	if fam, ok := f.families[venueID]; ok {
		return fam, nil
	}
	return []int64{venueID}, nil
}

func strPtr(s string) *string { return &s }

func newReconciler(store *fakeStore, sib SiblingResolver, opts SourceOptions) *Reconciler {
	return New(store, sib, zerolog.Nop(), 1, opts)
}

func TestReconcileNoDuplicateInsert(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := newReconciler(store, nil, SourceOptions{})
	ctx := context.Background()

	cand := CandidateEvent{
		Title:     "Big Night Out",
		StartDate: "2026-03-14",
		VenueName: "The Earl",
	}
	for i := 0; i < 5; i++ {
		c := cand
		if _, err := r.ReconcileOne(ctx, &c); err != nil {
			t.Fatalf("reconcile %d: %v", i, err)
		}
	}

	if len(store.events) != 1 {
		t.Fatalf("expected exactly one event row, got %d", len(store.events))
	}
}

func TestReconcileSkipsMissingIdentityFields(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := newReconciler(store, nil, SourceOptions{})
	ctx := context.Background()

	res, err := r.ReconcileOne(ctx, &CandidateEvent{StartDate: "2026-03-14"})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Outcome != OutcomeSkipped || res.Reason != "missing title" {
		t.Fatalf("expected missing-title skip, got %+v", res)
	}

	res, err = r.ReconcileOne(ctx, &CandidateEvent{Title: "Untitled Night"})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Outcome != OutcomeSkipped || res.Reason != "missing start date" {
		t.Fatalf("expected missing-date skip, got %+v", res)
	}

	if len(store.events) != 0 {
		t.Fatalf("skipped candidates must not be persisted, got %d rows", len(store.events))
	}
}

func TestReconcileMergeNeverRegresses(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := newReconciler(store, nil, SourceOptions{})
	ctx := context.Background()

	rich := CandidateEvent{
		Title:       "Album Release Show",
		StartDate:   "2026-04-01",
		VenueName:   "Aisle 5",
		Description: strPtr("A long, detailed description from the event page."),
		ImageURL:    strPtr("https://example.com/poster.jpg"),
	}
	if _, err := r.ReconcileOne(ctx, &rich); err != nil {
		t.Fatalf("reconcile rich: %v", err)
	}

	poor := CandidateEvent{
		Title:     "Album Release Show",
		StartDate: "2026-04-01",
		VenueName: "Aisle 5",
	}
	res, err := r.ReconcileOne(ctx, &poor)
	if err != nil {
		t.Fatalf("reconcile poor: %v", err)
	}
	if res.Outcome != OutcomeUpdated {
		t.Fatalf("expected update outcome, got %v", res.Outcome)
	}

	ev := store.events[0]
	if ev.Description == nil || *ev.Description != *rich.Description {
		t.Fatalf("description regressed: %v", ev.Description)
	}
	if ev.ImageURL == nil || *ev.ImageURL != *rich.ImageURL {
		t.Fatalf("image URL regressed: %v", ev.ImageURL)
	}
}

func TestReconcileMergeFillsAndPrefersLonger(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := newReconciler(store, nil, SourceOptions{})
	ctx := context.Background()

	first := CandidateEvent{
		Title:       "Comedy Showcase",
		StartDate:   "2026-04-02",
		VenueName:   "The Earl",
		Description: strPtr("short"),
	}
	if _, err := r.ReconcileOne(ctx, &first); err != nil {
		t.Fatalf("reconcile first: %v", err)
	}

	second := CandidateEvent{
		Title:       "Comedy Showcase",
		StartDate:   "2026-04-02",
		VenueName:   "The Earl",
		Description: strPtr("a considerably longer and richer description"),
		TicketURL:   strPtr("https://tickets.example.com/1"),
	}
	if _, err := r.ReconcileOne(ctx, &second); err != nil {
		t.Fatalf("reconcile second: %v", err)
	}

	ev := store.events[0]
	if ev.Description == nil || *ev.Description != *second.Description {
		t.Fatalf("longer description should win, got %v", ev.Description)
	}
	if ev.TicketURL == nil || *ev.TicketURL != *second.TicketURL {
		t.Fatalf("empty ticket URL should be filled, got %v", ev.TicketURL)
	}
}

func TestReconcileInsertConflictFallsIntoMerge(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := newReconciler(store, nil, SourceOptions{})
	ctx := context.Background()

	seed := CandidateEvent{Title: "Race Night", StartDate: "2026-05-05", VenueName: "529"}
	if _, err := r.ReconcileOne(ctx, &seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Simulate the race: the exact-hash lookup reads stale state and
	// misses, then the insert hits the unique index because the winning
	// observation's row is already there.
	store.missFirstLookup = true

	cand := CandidateEvent{
		Title:       "Race Night",
		StartDate:   "2026-05-05",
		VenueName:   "529",
		Description: strPtr("filled in by the second observation"),
	}
	res, err := r.ReconcileOne(ctx, &cand)
	if err != nil {
		t.Fatalf("reconcile after conflict: %v", err)
	}
	if res.Outcome != OutcomeUpdated {
		t.Fatalf("conflict should resolve as update, got %v", res.Outcome)
	}
	if len(store.events) != 1 {
		t.Fatalf("conflict must not create a second row, got %d", len(store.events))
	}
	if store.events[0].Description == nil {
		t.Fatal("merge after conflict lost the incoming description")
	}
}

func TestReconcileSiblingWidenedMatch(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	sib := &fakeSiblings{families: map[int64][]int64{}}
	r := newReconciler(store, sib, SourceOptions{WidenToSiblings: true})
	ctx := context.Background()

	first := CandidateEvent{Title: "Metal Monday", StartDate: "2026-06-01", VenueName: "Hell at The Masquerade"}
	if _, err := r.ReconcileOne(ctx, &first); err != nil {
		t.Fatalf("seed room event: %v", err)
	}

	hellID := store.venues["Hell at The Masquerade"]
	// The second source files the same show under the complex listing.
	second := CandidateEvent{Title: "Metal Monday", StartDate: "2026-06-01", VenueName: "The Masquerade"}
	// Wire the family after the first insert so both venue IDs exist.
	if _, err := store.GetOrCreateVenue(ctx, db.CandidateVenue{Name: "The Masquerade"}); err != nil {
		t.Fatalf("create complex venue: %v", err)
	}
	complexID := store.venues["The Masquerade"]
	sib.families[hellID] = []int64{hellID, complexID}
	sib.families[complexID] = []int64{hellID, complexID}

	res, err := r.ReconcileOne(ctx, &second)
	if err != nil {
		t.Fatalf("reconcile complex-filed event: %v", err)
	}
	if res.Outcome != OutcomeUpdated {
		t.Fatalf("expected sibling match to merge, got %v", res.Outcome)
	}
	if len(store.events) != 1 {
		t.Fatalf("sibling match must not duplicate, got %d rows", len(store.events))
	}
}

func TestReconcileSeriesHintSuppressesPerEventGenre(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := newReconciler(store, nil, SourceOptions{})
	ctx := context.Background()

	cand := CandidateEvent{
		Title:     "Trivia Night",
		StartDate: "2026-07-07",
		VenueName: "Midway Pub",
		Category:  strPtr("trivia"),
		Tags:      []string{"weekly", "free"},
		Series: &db.SeriesHint{
			Title:      "Trivia Night at Midway",
			SeriesType: "recurring",
			Category:   strPtr("trivia"),
		},
	}
	res, err := r.ReconcileOne(ctx, &cand)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Outcome != OutcomeInserted {
		t.Fatalf("expected insert, got %v", res.Outcome)
	}

	ev := store.events[0]
	if ev.SeriesID == nil {
		t.Fatal("series was not linked")
	}
	if ev.Category != nil || len(ev.Tags) != 0 {
		t.Fatal("per-event genre fields must defer to the series")
	}
}

func TestReconcileDefaultIsFreeOnlyWhenUndeclared(t *testing.T) {
	t.Parallel()

	free := true
	store := newFakeStore()
	r := newReconciler(store, nil, SourceOptions{DefaultIsFree: &free})
	ctx := context.Background()

	plain := CandidateEvent{Title: "Park Concert", StartDate: "2026-08-08", VenueName: "Piedmont Park"}
	if _, err := r.ReconcileOne(ctx, &plain); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if store.events[0].IsFree == nil || !*store.events[0].IsFree {
		t.Fatal("source default should mark undeclared events free")
	}

	price := 25.0
	paid := CandidateEvent{Title: "Gala", StartDate: "2026-08-09", VenueName: "Piedmont Park", PriceMin: &price}
	if _, err := r.ReconcileOne(ctx, &paid); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if store.events[1].IsFree != nil {
		t.Fatal("priced event must not receive the free default")
	}
}

func TestReconcileBatchContinuesPastFailures(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := newReconciler(store, nil, SourceOptions{})

	cands := []CandidateEvent{
		{Title: "Good One", StartDate: "2026-09-01", VenueName: "The Earl"},
		{Title: "", StartDate: "2026-09-01"},
		{Title: "Another Good One", StartDate: "2026-09-02", VenueName: "The Earl"},
	}
	sum := r.ReconcileBatch(context.Background(), cands)

	if sum.Found != 3 || sum.Inserted != 2 || sum.Skipped != 1 || sum.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if len(store.events) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(store.events))
	}
}
