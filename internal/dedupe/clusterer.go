// Package dedupe keeps the venue catalog converged on one active record
// per physical destination: it clusters active venues into duplicate
// candidate sets, picks a keeper per cluster, merges the rest away, and
// sweeps non-destination records.
package dedupe

import (
	"context"
	"fmt"
	"sort"

	"gigcity.app/catalog/internal/db"
	"gigcity.app/catalog/internal/normalize"
)

const defaultPageSize = 500

// Store is the slice of the data store the venue-maintenance jobs use.
// *db.Pool implements it.
type Store interface {
	ListActiveVenues(ctx context.Context, afterID int64, limit int) ([]db.Venue, error)
	EventCountsByVenuePage(ctx context.Context, afterVenueID int64, limit int) ([]db.VenueEventCount, error)
	AbsorbLoserVenue(ctx context.Context, keeperID, loserID int64, reason string) (int64, error)
	BackfillVenueFields(ctx context.Context, venueID int64, fields map[string]any) error
	DeactivateVenue(ctx context.Context, venueID int64, reason string) error
}

// ClusterKey identifies one duplicate candidate set.
type ClusterKey struct {
	Name string
	City string
}

// Member is one venue inside a cluster, annotated with the ranking
// signals.
type Member struct {
	Venue        db.Venue
	EventCount   int64
	Completeness int
}

// Cluster is a duplicate candidate set: 2+ active venues sharing a
// normalized (name, city) key.
type Cluster struct {
	Key     ClusterKey
	Members []Member
}

// ScanActiveVenues pages through every active venue. The scan checks ctx
// between pages so a long catalog walk can be interrupted cleanly.
func ScanActiveVenues(ctx context.Context, store Store, pageSize int) ([]db.Venue, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var all []db.Venue
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := store.ListActiveVenues(ctx, afterID, pageSize)
		if err != nil {
			return nil, fmt.Errorf("list active venues after %d: %w", afterID, err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
		afterID = page[len(page)-1].VenueID
	}
}

// ScanEventCounts pages through the attached-event counts the same way
// ScanActiveVenues pages through venues, keyed by venue ID.
func ScanEventCounts(ctx context.Context, store Store, pageSize int) (map[int64]int64, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	counts := make(map[int64]int64)
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := store.EventCountsByVenuePage(ctx, afterID, pageSize)
		if err != nil {
			return nil, fmt.Errorf("event counts after venue %d: %w", afterID, err)
		}
		for _, c := range page {
			counts[c.VenueID] = c.EventCount
		}
		if len(page) < pageSize {
			return counts, nil
		}
		afterID = page[len(page)-1].VenueID
	}
}

// BuildClusters groups venues by normalized (name, city) and keeps the
// groups with two or more members, each member already ranked (see
// RankMembers). Venues whose name folds to nothing are unclusterable and
// ignored.
func BuildClusters(venues []db.Venue, eventCounts map[int64]int64) []Cluster {
	groups := make(map[ClusterKey][]Member)
	for _, v := range venues {
		key := ClusterKey{Name: normalize.Name(v.Name), City: normalizedCity(v.City)}
		if key.Name == "" {
			continue
		}
		groups[key] = append(groups[key], Member{
			Venue:        v,
			EventCount:   eventCounts[v.VenueID],
			Completeness: Completeness(v),
		})
	}

	clusters := make([]Cluster, 0, len(groups))
	for key, members := range groups {
		if len(members) < 2 {
			continue
		}
		RankMembers(members)
		clusters = append(clusters, Cluster{Key: key, Members: members})
	}

	// Deterministic processing order across runs.
	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Key.Name != clusters[j].Key.Name {
			return clusters[i].Key.Name < clusters[j].Key.Name
		}
		return clusters[i].Key.City < clusters[j].Key.City
	})
	return clusters
}

func normalizedCity(city *string) string {
	if city == nil {
		return ""
	}
	return normalize.City(*city)
}
