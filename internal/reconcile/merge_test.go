package reconcile

import (
	"testing"

	"gigcity.app/catalog/internal/db"
)

func TestMergeCandidateNilIncomingNeverClobbers(t *testing.T) {
	t.Parallel()

	desc := "existing description"
	url := "https://example.com/e"
	price := 10.0
	free := false
	existing := db.Event{
		EventID:     1,
		Description: &desc,
		TicketURL:   &url,
		PriceMin:    &price,
		IsFree:      &free,
		Tags:        []string{"rock"},
	}

	changed := MergeCandidate(&existing, &CandidateEvent{})
	if changed {
		t.Fatal("empty candidate reported a change")
	}
	if existing.Description == nil || *existing.Description != desc {
		t.Fatal("description regressed to nil")
	}
	if existing.PriceMin == nil || *existing.PriceMin != price {
		t.Fatal("price regressed to nil")
	}
	if existing.IsFree == nil || *existing.IsFree != free {
		t.Fatal("free flag regressed to nil")
	}
	if len(existing.Tags) != 1 {
		t.Fatal("tags regressed")
	}
}

func TestMergeCandidateDeclaredValuesReplace(t *testing.T) {
	t.Parallel()

	price := 10.0
	free := false
	existing := db.Event{EventID: 1, PriceMin: &price, IsFree: &free}

	newPrice := 15.0
	nowFree := true
	changed := MergeCandidate(&existing, &CandidateEvent{PriceMin: &newPrice, IsFree: &nowFree})
	if !changed {
		t.Fatal("declared differing values must register as a change")
	}
	if *existing.PriceMin != newPrice {
		t.Fatalf("price not replaced: %v", *existing.PriceMin)
	}
	if !*existing.IsFree {
		t.Fatal("free flag not replaced")
	}
}

func TestMergeCandidateShorterDescriptionLoses(t *testing.T) {
	t.Parallel()

	long := "the long rich detail-page description"
	existing := db.Event{EventID: 1, Description: &long}

	short := "brief"
	if MergeCandidate(&existing, &CandidateEvent{Description: &short}) {
		t.Fatal("shorter description reported a change")
	}
	if *existing.Description != long {
		t.Fatal("shorter description replaced the longer one")
	}
}

func TestMergeCandidateIdentityImmutable(t *testing.T) {
	t.Parallel()

	hash := []byte{1, 2, 3}
	existing := db.Event{EventID: 7, SourceID: 3, StartDate: "2026-01-01", ContentHash: hash, Title: "Original"}

	MergeCandidate(&existing, &CandidateEvent{Title: "Renamed", StartDate: "2027-12-31"})
	if existing.Title != "Original" || existing.StartDate != "2026-01-01" {
		t.Fatal("identity fields were mutated")
	}
	if &existing.ContentHash[0] != &hash[0] {
		t.Fatal("content hash was replaced")
	}
}
