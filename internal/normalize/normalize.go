package normalize

import (
	"strings"
	"unicode"
)

// Name canonicalizes a venue or event name for comparison: lowercase,
// possessives removed, punctuation folded to spaces, whitespace collapsed.
// Returns an empty string when nothing survives folding.
func Name(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return ""
	}

	lowered = strings.ReplaceAll(lowered, "’", "'")
	lowered = strings.ReplaceAll(lowered, "'s ", " ")
	lowered = strings.TrimSuffix(lowered, "'s")
	lowered = strings.ReplaceAll(lowered, "'", "")

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '&':
			b.WriteString(" and ")
		default:
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// City canonicalizes a city name: lowercase, punctuation folded, whitespace
// collapsed. Possessives are left alone since city names do not carry them.
func City(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Slug folds a name into a URL-safe slug: canonicalized via Name, spaces
// replaced with hyphens. Best-effort unique; the store falls back to exact
// name matching when slugs collide across distinct venues.
func Slug(raw string) string {
	return strings.ReplaceAll(Name(raw), " ", "-")
}

// Whitespace collapses interior runs of whitespace and trims the ends,
// preserving case and punctuation. Used for fingerprint inputs where the
// full fold of Name would be too aggressive.
func Whitespace(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
