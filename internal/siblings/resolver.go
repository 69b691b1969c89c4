// Package siblings groups venue records that belong to one physical
// multi-room complex, so an event filed under "Room A" and the same event
// filed under "Complex: Room A" land in the same duplicate-search scope.
package siblings

import (
	"context"
	"fmt"
	"strings"

	"gigcity.app/catalog/internal/db"
	"gigcity.app/catalog/internal/normalize"
)

// Complex is one curated multi-room venue: the complex name plus the room
// names that may appear as standalone venue records. The table is data, not
// inference; new complexes are added here without touching resolver logic.
type Complex struct {
	Name    string
	Members []string
}

// DefaultComplexes is the production table.
func DefaultComplexes() []Complex {
	return []Complex{
		{
			Name:    "The Masquerade",
			Members: []string{"Heaven", "Hell", "Purgatory", "Altar"},
		},
		{
			Name:    "Center Stage",
			Members: []string{"The Loft", "Vinyl"},
		},
		{
			Name:    "Pullman Yards",
			Members: []string{"The Foundry", "Rail Room"},
		},
	}
}

// Store is the read-only slice of the venue store the resolver needs.
type Store interface {
	GetVenue(ctx context.Context, venueID int64) (*db.Venue, error)
	FindActiveVenuesByNameToken(ctx context.Context, token string) ([]db.VenueNameRef, error)
}

// Resolver resolves a venue to its sibling family.
type Resolver struct {
	store     Store
	complexes []complexEntry
}

type complexEntry struct {
	rawName string
	token   string
	members map[string]struct{}
}

// New builds a Resolver over a curated complex table. Pass
// DefaultComplexes() in production.
func New(store Store, complexes []Complex) *Resolver {
	entries := make([]complexEntry, 0, len(complexes))
	for _, c := range complexes {
		token := normalize.Name(c.Name)
		if token == "" {
			continue
		}
		members := make(map[string]struct{}, len(c.Members))
		for _, m := range c.Members {
			if norm := normalize.Name(m); norm != "" {
				members[norm] = struct{}{}
			}
		}
		entries = append(entries, complexEntry{rawName: c.Name, token: token, members: members})
	}
	return &Resolver{store: store, complexes: entries}
}

// Resolve returns the set of venue IDs in the same physical complex as
// venueID, always including venueID itself. A venue outside every curated
// complex resolves to just itself. Read-only.
func (r *Resolver) Resolve(ctx context.Context, venueID int64) (map[int64]struct{}, error) {
	family := map[int64]struct{}{venueID: {}}

	venue, err := r.store.GetVenue(ctx, venueID)
	if err != nil {
		if db.IsNoRows(err) {
			return family, nil
		}
		return nil, fmt.Errorf("load venue %d: %w", venueID, err)
	}

	entry, ok := r.match(normalize.Name(venue.Name))
	if !ok {
		return family, nil
	}

	// The family is derived from the complex definition, not from the
	// input venue, so every member resolves to the same set.
	refs, err := r.store.FindActiveVenuesByNameToken(ctx, entry.rawName)
	if err != nil {
		return nil, fmt.Errorf("find venues for complex %q: %w", entry.rawName, err)
	}
	for _, ref := range refs {
		family[ref.VenueID] = struct{}{}
	}

	for member := range entry.members {
		refs, err := r.store.FindActiveVenuesByNameToken(ctx, member)
		if err != nil {
			return nil, fmt.Errorf("find venues for room %q: %w", member, err)
		}
		for _, ref := range refs {
			if entry.belongs(normalize.Name(ref.Name)) {
				family[ref.VenueID] = struct{}{}
			}
		}
	}

	return family, nil
}

// ResolveIDs is Resolve flattened to a sorted-insertion slice for IN
// queries.
func (r *Resolver) ResolveIDs(ctx context.Context, venueID int64) ([]int64, error) {
	family, err := r.Resolve(ctx, venueID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(family))
	for id := range family {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Resolver) match(normalizedName string) (complexEntry, bool) {
	if normalizedName == "" {
		return complexEntry{}, false
	}
	for _, entry := range r.complexes {
		if entry.belongs(normalizedName) {
			return entry, true
		}
	}
	return complexEntry{}, false
}

// belongs reports complex membership: the name carries the complex token as
// a substring, or equals a curated room name exactly. Exact matching for
// rooms keeps a short name like "Vinyl" from pulling in unrelated venues.
func (e complexEntry) belongs(normalizedName string) bool {
	if normalizedName == "" {
		return false
	}
	if containsToken(normalizedName, e.token) {
		return true
	}
	_, ok := e.members[normalizedName]
	return ok
}

func containsToken(name, token string) bool {
	return token != "" && strings.Contains(name, token)
}
