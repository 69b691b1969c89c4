package dedupe

import (
	"context"

	"github.com/rs/zerolog"

	"gigcity.app/catalog/internal/classify"
)

// Sweeper deactivates venues the chain classifier flags as
// non-destinations. Flagged venues that still hold events are reported
// but never touched; events always win over the rule tables.
type Sweeper struct {
	store      Store
	classifier *classify.Classifier
	logger     zerolog.Logger
	pageSize   int
}

func NewSweeper(store Store, classifier *classify.Classifier, logger zerolog.Logger, pageSize int) *Sweeper {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Sweeper{store: store, classifier: classifier, logger: logger, pageSize: pageSize}
}

// SweepCandidate is one flagged venue.
type SweepCandidate struct {
	VenueID    int64  `json:"venue_id"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
	EventCount int64  `json:"event_count,omitempty"`
}

// SweepPlan separates deactivatable venues from protected ones.
type SweepPlan struct {
	Deactivate []SweepCandidate `json:"deactivate"`
	Protected  []SweepCandidate `json:"protected"`
}

// SweepSummary reports what Execute did.
type SweepSummary struct {
	Deactivated int `json:"deactivated"`
	Protected   int `json:"protected"`
	Failed      int `json:"failed"`
}

// Plan classifies every active venue without writing anything.
func (s *Sweeper) Plan(ctx context.Context) (*SweepPlan, error) {
	venues, err := ScanActiveVenues(ctx, s.store, s.pageSize)
	if err != nil {
		return nil, err
	}
	counts, err := ScanEventCounts(ctx, s.store, s.pageSize)
	if err != nil {
		return nil, err
	}

	plan := &SweepPlan{}
	for _, v := range venues {
		in := classify.Input{Name: v.Name}
		if v.VenueType != nil {
			in.VenueType = *v.VenueType
		}
		reason, flagged := s.classifier.Classify(in)
		if !flagged {
			continue
		}
		cand := SweepCandidate{
			VenueID:    v.VenueID,
			Name:       v.Name,
			Reason:     reason,
			EventCount: counts[v.VenueID],
		}
		if cand.EventCount > 0 {
			plan.Protected = append(plan.Protected, cand)
			continue
		}
		plan.Deactivate = append(plan.Deactivate, cand)
	}
	return plan, nil
}

// Execute retires the plan's deactivation candidates. Per-venue failures
// are logged and counted; the sweep keeps going.
func (s *Sweeper) Execute(ctx context.Context, plan *SweepPlan) (SweepSummary, error) {
	sum := SweepSummary{Protected: len(plan.Protected)}
	for _, cand := range plan.Protected {
		s.logger.Warn().
			Int64("venue_id", cand.VenueID).
			Str("name", cand.Name).
			Str("reason", cand.Reason).
			Int64("event_count", cand.EventCount).
			Msg("non-destination venue has events, skipping")
	}

	for _, cand := range plan.Deactivate {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := s.store.DeactivateVenue(ctx, cand.VenueID, cand.Reason); err != nil {
			sum.Failed++
			s.logger.Error().Err(err).
				Int64("venue_id", cand.VenueID).
				Msg("deactivate venue failed")
			continue
		}
		sum.Deactivated++
		s.logger.Info().
			Int64("venue_id", cand.VenueID).
			Str("name", cand.Name).
			Str("reason", cand.Reason).
			Msg("venue deactivated")
	}
	return sum, nil
}
