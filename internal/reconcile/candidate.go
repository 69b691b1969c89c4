package reconcile

import (
	"strings"
	"time"

	"gigcity.app/catalog/internal/db"
)

// CandidateEvent is the record a scraper hands the core: an events row
// minus the surrogate ID and content hash, plus an optional venue record
// and series hint. Pointer fields distinguish "not observed" from an
// explicit empty observation.
type CandidateEvent struct {
	Title                string             `json:"title"`
	Description          *string            `json:"description,omitempty"`
	StartDate            string             `json:"start_date"`
	StartTime            *string            `json:"start_time,omitempty"`
	EndDate              *string            `json:"end_date,omitempty"`
	EndTime              *string            `json:"end_time,omitempty"`
	IsAllDay             *bool              `json:"is_all_day,omitempty"`
	Category             *string            `json:"category,omitempty"`
	Subcategory          *string            `json:"subcategory,omitempty"`
	Tags                 []string           `json:"tags,omitempty"`
	PriceMin             *float64           `json:"price_min,omitempty"`
	PriceMax             *float64           `json:"price_max,omitempty"`
	IsFree               *bool              `json:"is_free,omitempty"`
	SourceURL            *string            `json:"source_url,omitempty"`
	TicketURL            *string            `json:"ticket_url,omitempty"`
	ImageURL             *string            `json:"image_url,omitempty"`
	ExtractionConfidence *float64           `json:"extraction_confidence,omitempty"`
	Venue                *db.CandidateVenue `json:"venue,omitempty"`
	VenueName            string             `json:"venue_name,omitempty"`
	Series               *db.SeriesHint     `json:"series,omitempty"`
}

// Validate rejects candidates missing an identity field before any
// fingerprinting happens. A missing title or date is a skip, never a
// silent default.
func (c *CandidateEvent) Validate() (string, bool) {
	if strings.TrimSpace(c.Title) == "" {
		return "missing title", false
	}
	date := strings.TrimSpace(c.StartDate)
	if date == "" {
		return "missing start date", false
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "unparseable start date", false
	}
	return "", true
}

// SourceOptions hoists per-source defaults out of the core merge logic.
// Zero value is the conservative default for an unknown source.
type SourceOptions struct {
	// ShowtimeKeys widens the fingerprint to date+time for sources that
	// list many showtimes per day.
	ShowtimeKeys bool
	// WidenToSiblings enables the family-aware near-duplicate lookup for
	// sources covering multi-room complexes.
	WidenToSiblings bool
	// DefaultIsFree is applied only when the candidate declares neither a
	// free flag nor a price.
	DefaultIsFree *bool
}

// sourceOptionsTable holds the curated per-source overrides.
var sourceOptionsTable = map[string]SourceOptions{
	"plaza-theatre":  {ShowtimeKeys: true},
	"videodrome":     {ShowtimeKeys: true},
	"masquerade":     {WidenToSiblings: true},
	"center-stage":   {WidenToSiblings: true},
	"beltline-art":   {DefaultIsFree: boolPtr(true)},
	"city-parks-rec": {DefaultIsFree: boolPtr(true)},
}

// OptionsForSource returns the curated options for a source slug, or the
// zero-value defaults.
func OptionsForSource(slug string) SourceOptions {
	return sourceOptionsTable[strings.TrimSpace(strings.ToLower(slug))]
}

func boolPtr(b bool) *bool { return &b }
