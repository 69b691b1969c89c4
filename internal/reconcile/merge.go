package reconcile

import (
	"strings"

	"gigcity.app/catalog/internal/db"
)

// MergeCandidate folds a re-observation into an existing event row. The
// policy is monotonically non-decreasing in data quality: a later crawl
// that saw less (a bare listing page after a rich detail page) must never
// strip what an earlier crawl captured.
//
//   - An empty incoming value never replaces a populated one.
//   - An incoming value fills an empty existing field.
//   - Description keeps whichever non-empty string is longer.
//   - Prices and boolean flags change only when the incoming record
//     declares a different, non-null value.
//   - Identity fields and content_hash are untouched.
//
// Returns true when any field changed.
func MergeCandidate(existing *db.Event, cand *CandidateEvent) bool {
	changed := false

	if mergeLongerText(&existing.Description, cand.Description) {
		changed = true
	}

	for _, pair := range []struct {
		dst **string
		src *string
	}{
		{&existing.StartTime, cand.StartTime},
		{&existing.EndDate, cand.EndDate},
		{&existing.EndTime, cand.EndTime},
		{&existing.Category, cand.Category},
		{&existing.Subcategory, cand.Subcategory},
		{&existing.SourceURL, cand.SourceURL},
		{&existing.TicketURL, cand.TicketURL},
		{&existing.ImageURL, cand.ImageURL},
	} {
		if fillString(pair.dst, pair.src) {
			changed = true
		}
	}

	if len(existing.Tags) == 0 && len(cand.Tags) > 0 {
		existing.Tags = append([]string(nil), cand.Tags...)
		changed = true
	}

	if replaceFloat(&existing.PriceMin, cand.PriceMin) {
		changed = true
	}
	if replaceFloat(&existing.PriceMax, cand.PriceMax) {
		changed = true
	}
	if replaceBool(&existing.IsFree, cand.IsFree) {
		changed = true
	}
	if cand.IsAllDay != nil && existing.IsAllDay != *cand.IsAllDay {
		existing.IsAllDay = *cand.IsAllDay
		changed = true
	}

	if cand.ExtractionConfidence != nil &&
		(existing.ExtractionConfidence == nil || *cand.ExtractionConfidence > *existing.ExtractionConfidence) {
		existing.ExtractionConfidence = cand.ExtractionConfidence
		changed = true
	}

	return changed
}

// mergeLongerText applies the free-text rule: the longer non-empty string
// wins, ties keep the existing value.
func mergeLongerText(dst **string, src *string) bool {
	if src == nil || strings.TrimSpace(*src) == "" {
		return false
	}
	if *dst == nil || strings.TrimSpace(**dst) == "" {
		v := *src
		*dst = &v
		return true
	}
	if len(strings.TrimSpace(*src)) > len(strings.TrimSpace(**dst)) {
		v := *src
		*dst = &v
		return true
	}
	return false
}

// fillString fills only an empty destination; a populated value is never
// regressed or replaced.
func fillString(dst **string, src *string) bool {
	if src == nil || strings.TrimSpace(*src) == "" {
		return false
	}
	if *dst != nil && strings.TrimSpace(**dst) != "" {
		return false
	}
	v := *src
	*dst = &v
	return true
}

// replaceFloat overwrites only with a declared, different value.
func replaceFloat(dst **float64, src *float64) bool {
	if src == nil {
		return false
	}
	if *dst != nil && **dst == *src {
		return false
	}
	v := *src
	*dst = &v
	return true
}

// replaceBool overwrites only with a declared, different value.
func replaceBool(dst **bool, src *bool) bool {
	if src == nil {
		return false
	}
	if *dst != nil && **dst == *src {
		return false
	}
	v := *src
	*dst = &v
	return true
}
