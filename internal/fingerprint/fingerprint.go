package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"gigcity.app/catalog/internal/normalize"
)

// separator keeps tuple components from bleeding into each other
// ("ab"+"c" vs "a"+"bc").
const separator = "\x1f"

// Event returns the identity hash for an event observed as
// (title, venue name, start date). The hash is stable across runs and
// insensitive to case and whitespace. Total over any input: empty
// components still hash, callers treat those as data-quality warnings.
func Event(title, venueName, date string) []byte {
	return digest(title, venueName, date)
}

// EventShowtime widens the identity tuple with a start time so sources that
// list many showtimes per day produce one fingerprint per showtime.
func EventShowtime(title, venueName, date, startTime string) []byte {
	return digest(title, venueName, date+"T"+strings.TrimSpace(startTime))
}

// Hex renders a fingerprint for logs and summaries.
func Hex(hash []byte) string {
	return hex.EncodeToString(hash)
}

func digest(title, venueName, date string) []byte {
	key := strings.Join([]string{
		normalize.Name(title),
		normalize.Name(venueName),
		strings.ToLower(strings.TrimSpace(date)),
	}, separator)
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}
