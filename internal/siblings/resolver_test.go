package siblings

import (
	"context"
	"strings"
	"testing"

	"gigcity.app/catalog/internal/db"
)

type fakeStore struct {
	venues map[int64]string
}

func (f *fakeStore) GetVenue(_ context.Context, venueID int64) (*db.Venue, error) {
	name, ok := f.venues[venueID]
	if !ok {
		return nil, db.ErrNoRows
	}
	return &db.Venue{VenueID: venueID, Name: name, Active: true}, nil
}

func (f *fakeStore) FindActiveVenuesByNameToken(_ context.Context, token string) ([]db.VenueNameRef, error) {
	var refs []db.VenueNameRef
	lowered := strings.ToLower(token)
	for id, name := range f.venues {
		if strings.Contains(strings.ToLower(name), lowered) {
			refs = append(refs, db.VenueNameRef{VenueID: id, Name: name})
		}
	}
	return refs, nil
}

func testComplexes() []Complex {
	return []Complex{
		{Name: "The Masquerade", Members: []string{"Heaven", "Hell", "Purgatory"}},
	}
}

func testStore() *fakeStore {
	return &fakeStore{venues: map[int64]string{
		1: "The Masquerade",
		2: "The Masquerade - Heaven",
		3: "Hell at The Masquerade",
		4: "Purgatory",
		5: "The Earl",
		6: "Hellenic Cultural Center",
	}}
}

func TestResolveFamilyIncludesAllRooms(t *testing.T) {
	t.Parallel()

	r := New(testStore(), testComplexes())
	family, err := r.Resolve(context.Background(), 2)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	for _, want := range []int64{1, 2, 3, 4} {
		if _, ok := family[want]; !ok {
			t.Fatalf("family missing venue %d: %v", want, family)
		}
	}
	if _, ok := family[5]; ok {
		t.Fatal("unrelated venue pulled into family")
	}
	if _, ok := family[6]; ok {
		t.Fatal("partial room-name match pulled into family")
	}
}

func TestResolveSymmetric(t *testing.T) {
	t.Parallel()

	r := New(testStore(), testComplexes())
	ctx := context.Background()

	base, err := r.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("resolve complex: %v", err)
	}
	for _, id := range []int64{2, 3, 4} {
		family, err := r.Resolve(ctx, id)
		if err != nil {
			t.Fatalf("resolve room %d: %v", id, err)
		}
		if len(family) != len(base) {
			t.Fatalf("asymmetric family for %d: %v vs %v", id, family, base)
		}
		for member := range base {
			if _, ok := family[member]; !ok {
				t.Fatalf("family of %d missing %d", id, member)
			}
		}
	}
}

func TestResolveNonComplexVenueIsSingleton(t *testing.T) {
	t.Parallel()

	r := New(testStore(), testComplexes())
	family, err := r.Resolve(context.Background(), 5)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(family) != 1 {
		t.Fatalf("expected singleton family, got %v", family)
	}
	if _, ok := family[5]; !ok {
		t.Fatal("family must include the input venue")
	}
}

func TestResolveUnknownVenueIsSingleton(t *testing.T) {
	t.Parallel()

	r := New(testStore(), testComplexes())
	family, err := r.Resolve(context.Background(), 99)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(family) != 1 {
		t.Fatalf("expected singleton family for unknown venue, got %v", family)
	}
}
