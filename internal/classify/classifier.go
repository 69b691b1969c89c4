// Package classify labels venues that should never be offered as discovery
// destinations: franchise chains, gas stations, big-box retail, and records
// whose "name" is just a street address.
package classify

import (
	"regexp"
	"strings"

	"gigcity.app/catalog/internal/normalize"
)

// Reason tags returned by Classify. Kept short because they land in
// venues.deactivation_reason and batch summaries.
const (
	ReasonPharmacy     = "pharmacy chain"
	ReasonGasStation   = "gas station"
	ReasonFastFood     = "chain fast food"
	ReasonCasualDining = "chain casual dining"
	ReasonBigBox       = "big box retail"
	ReasonCoffee       = "chain coffee"
	ReasonGrocery      = "grocery chain"
	ReasonAddressOnly  = "address-as-name"
)

// addressPattern matches names that are nothing but a street address:
// leading house number, body, trailing street-suffix abbreviation, optional
// compass direction. Applied to normalized names, so punctuation is gone.
var addressPattern = regexp.MustCompile(
	`^\d+ .*\b(st|street|ave|avenue|rd|road|blvd|boulevard|dr|drive|ln|lane|pkwy|parkway|hwy|highway|way|ct|court|pl|place|cir|circle|ter|terrace|trl|trail)( (ne|nw|se|sw|n|s|e|w))?$`,
)

// Classifier applies the rule tables in a fixed precedence order.
type Classifier struct {
	rules *Rules
}

// New builds a Classifier over the given rule tables. Pass DefaultRules()
// in production; tests substitute smaller tables.
func New(rules *Rules) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Input is the slice of a venue record the classifier looks at.
type Input struct {
	Name      string
	VenueType string
}

// Classify returns a non-destination reason and true when the venue should
// not be surfaced, or ("", false) for a legitimate destination. First
// matching rule wins; the exception allow-list short-circuits every brand
// set and the address check.
func (c *Classifier) Classify(in Input) (string, bool) {
	venueType := strings.ToLower(strings.TrimSpace(in.VenueType))
	if reason, ok := c.rules.ExcludedVenueTypes[venueType]; ok {
		return reason, true
	}

	name := normalize.Name(in.Name)
	if name == "" {
		return "", false
	}
	if _, ok := c.rules.Exceptions[name]; ok {
		return "", false
	}

	checks := []struct {
		brands []string
		reason string
	}{
		{c.rules.Pharmacies, ReasonPharmacy},
		{c.rules.GasStations, ReasonGasStation},
		{c.rules.FastFood, ReasonFastFood},
		{c.rules.CasualDining, ReasonCasualDining},
		{c.rules.BigBoxRetail, ReasonBigBox},
		{c.rules.CoffeeChains, ReasonCoffee},
		{c.rules.GroceryChains, ReasonGrocery},
	}
	for _, check := range checks {
		if matchesBrand(name, check.brands) {
			return check.reason, true
		}
	}

	if addressPattern.MatchString(name) {
		return ReasonAddressOnly, true
	}

	return "", false
}

// matchesBrand reports whether the normalized name is exactly a brand or
// starts with one followed by more tokens. Franchise store numbers
// ("<Brand> #4821") reduce to the prefix case because normalization folds
// "#" to a space.
func matchesBrand(name string, brands []string) bool {
	for _, brand := range brands {
		if name == brand || strings.HasPrefix(name, brand+" ") {
			return true
		}
	}
	return false
}
