package classify

// Rules holds the curated tables the classifier matches against. Brand names
// are stored pre-normalized (see normalize.Name). A Rules value is treated as
// immutable after construction so one instance can back every call site.
type Rules struct {
	// ExcludedVenueTypes maps a venue_type value to a skip reason.
	ExcludedVenueTypes map[string]string
	// Exceptions are normalized names that look like chains but host real
	// events and must always classify as destinations.
	Exceptions map[string]struct{}

	Pharmacies    []string
	GasStations   []string
	FastFood      []string
	CasualDining  []string
	BigBoxRetail  []string
	CoffeeChains  []string
	GroceryChains []string
}

// DefaultRules returns the production rule tables.
func DefaultRules() *Rules {
	return &Rules{
		ExcludedVenueTypes: map[string]string{
			"pharmacy":          "non-destination type: pharmacy",
			"gas_station":       "non-destination type: gas_station",
			"convenience_store": "non-destination type: convenience_store",
			"parking":           "non-destination type: parking",
			"atm":               "non-destination type: atm",
		},
		Exceptions: map[string]struct{}{
			// Chain-adjacent names that are genuine event destinations.
			"the varsity":         {},
			"waffle house museum": {},
			"world of coca cola":  {},
			"krog street market":  {},
			"ponce city market":   {},
		},
		Pharmacies: []string{
			"cvs", "cvs pharmacy", "walgreens", "rite aid", "duane reade",
		},
		GasStations: []string{
			"shell", "chevron", "exxon", "bp", "citgo", "marathon", "texaco",
			"racetrac", "quiktrip", "qt", "circle k", "speedway", "valero",
			"sunoco", "pilot", "7 eleven",
		},
		// Brand entries are post-normalization forms: possessives are gone,
		// so "McDonald's" is stored as "mcdonald".
		FastFood: []string{
			"mcdonald", "mcdonalds", "burger king", "wendy", "taco bell",
			"kfc", "chick fil a", "popeyes", "arby", "subway", "domino",
			"domino pizza", "papa john", "little caesars", "pizza hut",
			"dairy queen", "sonic drive in", "krystal", "checkers",
			"cookout", "zaxby", "bojangles", "jimmy john", "jersey mike",
			"five guys", "chipotle", "panda express", "wingstop",
			"waffle house",
		},
		CasualDining: []string{
			"applebee", "chili", "olive garden", "outback steakhouse",
			"red lobster", "ihop", "denny", "cracker barrel", "hooters",
			"buffalo wild wings", "tgi fridays", "longhorn steakhouse",
			"texas roadhouse", "cheesecake factory", "panera bread",
		},
		BigBoxRetail: []string{
			"walmart", "target", "home depot", "the home depot", "lowe",
			"best buy", "costco", "sam club", "ikea", "dollar general",
			"dollar tree", "family dollar", "big lots", "office depot",
			"staples", "petsmart", "petco", "dick sporting goods",
			"bed bath and beyond", "academy sports",
		},
		CoffeeChains: []string{
			"starbucks", "dunkin", "dunkin donuts", "caribou coffee",
			"dutch bros", "tim hortons",
		},
		GroceryChains: []string{
			"kroger", "publix", "aldi", "lidl", "whole foods",
			"whole foods market", "trader joe", "food lion", "piggly wiggly",
			"sprouts farmers market", "ingles", "save a lot",
		},
	}
}
