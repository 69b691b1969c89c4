package dedupe

import (
	"sort"

	"gigcity.app/catalog/internal/db"
)

// Completeness scores a venue by how many of its enrichment fields carry
// data. Coordinates count once, as a pair.
func Completeness(v db.Venue) int {
	score := 0
	if hasText(v.Website) {
		score++
	}
	if hasText(v.Instagram) {
		score++
	}
	if hasText(v.Phone) {
		score++
	}
	if hasText(v.Description) {
		score++
	}
	if hasText(v.ImageURL) {
		score++
	}
	if hasText(v.Neighborhood) {
		score++
	}
	if v.Latitude != nil && v.Longitude != nil {
		score++
	}
	if hasText(v.Hours) {
		score++
	}
	if hasText(v.MenuURL) {
		score++
	}
	if hasText(v.ReservationURL) {
		score++
	}
	if len(v.Vibes) > 0 {
		score++
	}
	return score
}

func hasText(s *string) bool {
	return s != nil && *s != ""
}

// RankMembers orders a cluster keeper-first: most events wins, then the
// richer record, then the older (lower id) one so ties are stable.
func RankMembers(members []Member) {
	sort.Slice(members, func(i, j int) bool {
		if members[i].EventCount != members[j].EventCount {
			return members[i].EventCount > members[j].EventCount
		}
		if members[i].Completeness != members[j].Completeness {
			return members[i].Completeness > members[j].Completeness
		}
		return members[i].Venue.VenueID < members[j].Venue.VenueID
	})
}
