package fingerprint

import (
	"bytes"
	"testing"
)

func TestEventDeterministic(t *testing.T) {
	t.Parallel()

	a := Event("Big Night Out", "The Earl", "2026-03-14")
	b := Event("Big Night Out", "The Earl", "2026-03-14")
	if !bytes.Equal(a, b) {
		t.Fatalf("same inputs produced different hashes: %s vs %s", Hex(a), Hex(b))
	}
}

func TestEventCaseAndWhitespaceInsensitive(t *testing.T) {
	t.Parallel()

	a := Event("Big Night Out", "The Earl", "2026-03-14")
	b := Event("  BIG  night OUT ", "the earl", " 2026-03-14 ")
	if !bytes.Equal(a, b) {
		t.Fatalf("trivial case/whitespace changed the hash: %s vs %s", Hex(a), Hex(b))
	}
}

func TestEventDistinguishesComponents(t *testing.T) {
	t.Parallel()

	base := Event("Open Mic", "The Earl", "2026-03-14")
	if bytes.Equal(base, Event("Open Mic", "The Earl", "2026-03-15")) {
		t.Fatal("date change did not change the hash")
	}
	if bytes.Equal(base, Event("Open Mic", "Aisle 5", "2026-03-14")) {
		t.Fatal("venue change did not change the hash")
	}
	if bytes.Equal(base, Event("Open Mic Night", "The Earl", "2026-03-14")) {
		t.Fatal("title change did not change the hash")
	}
}

func TestEventTotalOverEmptyInput(t *testing.T) {
	t.Parallel()

	if got := Event("", "", ""); len(got) != 32 {
		t.Fatalf("expected a 32-byte hash for empty input, got %d bytes", len(got))
	}
}

func TestEventShowtimeSplitsByTime(t *testing.T) {
	t.Parallel()

	early := EventShowtime("Late Feature", "Plaza Theatre", "2026-03-14", "19:00")
	late := EventShowtime("Late Feature", "Plaza Theatre", "2026-03-14", "21:30")
	if bytes.Equal(early, late) {
		t.Fatal("different showtimes collapsed into one fingerprint")
	}

	day := Event("Late Feature", "Plaza Theatre", "2026-03-14")
	if bytes.Equal(day, early) {
		t.Fatal("showtime fingerprint collided with date-only fingerprint")
	}
}
