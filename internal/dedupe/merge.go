package dedupe

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"gigcity.app/catalog/internal/db"
)

// MergeExecutor collapses duplicate venue clusters into their keeper.
// Plan computes the work without touching the store; Execute applies a
// plan cluster by cluster, isolating failures so one bad cluster does
// not abort the run.
type MergeExecutor struct {
	store    Store
	logger   zerolog.Logger
	pageSize int
}

func NewMergeExecutor(store Store, logger zerolog.Logger, pageSize int) *MergeExecutor {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &MergeExecutor{store: store, logger: logger, pageSize: pageSize}
}

// LoserPlan is one venue slated for absorption into the keeper.
type LoserPlan struct {
	VenueID    int64  `json:"venue_id"`
	Name       string `json:"name"`
	EventCount int64  `json:"event_count"`
}

// ClusterPlan is the full merge decision for one duplicate cluster.
type ClusterPlan struct {
	Key          ClusterKey     `json:"-"`
	KeeperID     int64          `json:"keeper_id"`
	KeeperName   string         `json:"keeper_name"`
	Losers       []LoserPlan    `json:"losers"`
	EventsToMove int64          `json:"events_to_move"`
	Backfill     map[string]any `json:"backfill,omitempty"`
}

// MergeSummary reports what Execute did.
type MergeSummary struct {
	Clusters       int   `json:"clusters"`
	VenuesRetired  int   `json:"venues_retired"`
	EventsMoved    int64 `json:"events_moved"`
	FieldsFilled   int   `json:"fields_filled"`
	ClustersFailed int   `json:"clusters_failed"`
}

// Plan scans the active catalog and produces one ClusterPlan per
// duplicate cluster. It performs no writes and is the dry-run surface.
func (e *MergeExecutor) Plan(ctx context.Context) ([]ClusterPlan, error) {
	venues, err := ScanActiveVenues(ctx, e.store, e.pageSize)
	if err != nil {
		return nil, err
	}
	counts, err := ScanEventCounts(ctx, e.store, e.pageSize)
	if err != nil {
		return nil, err
	}

	clusters := BuildClusters(venues, counts)
	plans := make([]ClusterPlan, 0, len(clusters))
	for _, c := range clusters {
		plans = append(plans, planCluster(c))
	}
	return plans, nil
}

// planCluster turns a ranked cluster into a plan: first member keeps,
// the rest lose, and each keeper gap is filled from the best-ranked
// loser that has the value.
func planCluster(c Cluster) ClusterPlan {
	keeper := c.Members[0]
	plan := ClusterPlan{
		Key:        c.Key,
		KeeperID:   keeper.Venue.VenueID,
		KeeperName: keeper.Venue.Name,
	}

	for _, m := range c.Members[1:] {
		plan.Losers = append(plan.Losers, LoserPlan{
			VenueID:    m.Venue.VenueID,
			Name:       m.Venue.Name,
			EventCount: m.EventCount,
		})
		plan.EventsToMove += m.EventCount
	}

	backfill := make(map[string]any)
	for _, f := range backfillFields {
		if _, populated := f.get(keeper.Venue); populated {
			continue
		}
		for _, m := range c.Members[1:] {
			if val, ok := f.get(m.Venue); ok {
				backfill[f.column] = val
				break
			}
		}
	}
	if len(backfill) > 0 {
		plan.Backfill = backfill
	}
	return plan
}

// Execute applies the plans. Losers are absorbed one at a time, each in
// its own transaction, so a partially merged cluster is safe to re-run:
// already retired losers are skipped by the idempotent absorb.
func (e *MergeExecutor) Execute(ctx context.Context, plans []ClusterPlan) (MergeSummary, error) {
	var sum MergeSummary
	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := e.executeCluster(ctx, plan, &sum); err != nil {
			sum.ClustersFailed++
			e.logger.Error().Err(err).
				Int64("keeper_id", plan.KeeperID).
				Str("keeper_name", plan.KeeperName).
				Msg("cluster merge failed")
			continue
		}
		sum.Clusters++
	}
	return sum, nil
}

func (e *MergeExecutor) executeCluster(ctx context.Context, plan ClusterPlan, sum *MergeSummary) error {
	reason := fmt.Sprintf("duplicate of venue %d", plan.KeeperID)
	for _, loser := range plan.Losers {
		moved, err := e.store.AbsorbLoserVenue(ctx, plan.KeeperID, loser.VenueID, reason)
		if err != nil {
			return fmt.Errorf("absorb venue %d: %w", loser.VenueID, err)
		}
		sum.VenuesRetired++
		sum.EventsMoved += moved
		e.logger.Info().
			Int64("keeper_id", plan.KeeperID).
			Int64("loser_id", loser.VenueID).
			Int64("events_moved", moved).
			Msg("venue absorbed")
	}

	if len(plan.Backfill) > 0 {
		if err := e.store.BackfillVenueFields(ctx, plan.KeeperID, plan.Backfill); err != nil {
			return fmt.Errorf("backfill keeper %d: %w", plan.KeeperID, err)
		}
		sum.FieldsFilled += len(plan.Backfill)
	}
	return nil
}

// backfillFields maps backfillable columns to their venue accessors.
// Order follows the column list in the venues table.
var backfillFields = []struct {
	column string
	get    func(v db.Venue) (any, bool)
}{
	{"address", textField(func(v db.Venue) *string { return v.Address })},
	{"city", textField(func(v db.Venue) *string { return v.City })},
	{"state", textField(func(v db.Venue) *string { return v.State })},
	{"zip", textField(func(v db.Venue) *string { return v.Zip })},
	{"latitude", func(v db.Venue) (any, bool) {
		if v.Latitude == nil || v.Longitude == nil {
			return nil, false
		}
		return *v.Latitude, true
	}},
	{"longitude", func(v db.Venue) (any, bool) {
		if v.Latitude == nil || v.Longitude == nil {
			return nil, false
		}
		return *v.Longitude, true
	}},
	{"venue_type", textField(func(v db.Venue) *string { return v.VenueType })},
	{"website", textField(func(v db.Venue) *string { return v.Website })},
	{"phone", textField(func(v db.Venue) *string { return v.Phone })},
	{"instagram", textField(func(v db.Venue) *string { return v.Instagram })},
	{"description", textField(func(v db.Venue) *string { return v.Description })},
	{"image_url", textField(func(v db.Venue) *string { return v.ImageURL })},
	{"neighborhood", textField(func(v db.Venue) *string { return v.Neighborhood })},
	{"hours", textField(func(v db.Venue) *string { return v.Hours })},
	{"menu_url", textField(func(v db.Venue) *string { return v.MenuURL })},
	{"reservation_url", textField(func(v db.Venue) *string { return v.ReservationURL })},
	{"vibes", func(v db.Venue) (any, bool) {
		if len(v.Vibes) == 0 {
			return nil, false
		}
		return v.Vibes, true
	}},
}

func textField(get func(v db.Venue) *string) func(v db.Venue) (any, bool) {
	return func(v db.Venue) (any, bool) {
		s := get(v)
		if s == nil || *s == "" {
			return nil, false
		}
		return *s, true
	}
}
