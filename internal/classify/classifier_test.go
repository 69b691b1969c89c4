package classify

import "testing"

func TestClassifyChainBrands(t *testing.T) {
	t.Parallel()

	c := New(DefaultRules())

	cases := []struct {
		name   string
		reason string
	}{
		{"CVS Pharmacy #204", ReasonPharmacy},
		{"Walgreens", ReasonPharmacy},
		{"QuikTrip #771", ReasonGasStation},
		{"Shell", ReasonGasStation},
		{"McDonald's", ReasonFastFood},
		{"Waffle House #1000", ReasonFastFood},
		{"Applebee's Grill + Bar", ReasonCasualDining},
		{"Walmart Supercenter", ReasonBigBox},
		{"Starbucks", ReasonCoffee},
		{"Kroger #345", ReasonGrocery},
	}
	for _, tc := range cases {
		reason, ok := c.Classify(Input{Name: tc.name})
		if !ok {
			t.Fatalf("%q: expected non-destination, got destination", tc.name)
		}
		if reason != tc.reason {
			t.Fatalf("%q: expected reason %q, got %q", tc.name, tc.reason, reason)
		}
	}
}

func TestClassifyDestinationsPass(t *testing.T) {
	t.Parallel()

	c := New(DefaultRules())

	for _, name := range []string{
		"The Earl",
		"Terminal West",
		"Smith's Olde Bar",
		"Shellman Hall", // has a gas brand as a non-token prefix
		"529",
	} {
		if reason, ok := c.Classify(Input{Name: name}); ok {
			t.Fatalf("%q: unexpectedly classified as %q", name, reason)
		}
	}
}

func TestClassifyExceptionAllowListPrecedence(t *testing.T) {
	t.Parallel()

	rules := &Rules{
		Exceptions: map[string]struct{}{"waffle house museum": {}},
		FastFood:   []string{"waffle house"},
	}
	c := New(rules)

	if reason, ok := c.Classify(Input{Name: "Waffle House Museum"}); ok {
		t.Fatalf("allow-listed name classified as %q", reason)
	}
	if _, ok := c.Classify(Input{Name: "Waffle House #1000"}); !ok {
		t.Fatal("non-excepted franchise name passed as destination")
	}
}

func TestClassifyVenueTypeExclusionFirst(t *testing.T) {
	t.Parallel()

	c := New(DefaultRules())

	reason, ok := c.Classify(Input{Name: "Corner Pharmacy of Decatur", VenueType: "pharmacy"})
	if !ok {
		t.Fatal("expected venue_type exclusion to classify")
	}
	if reason != "non-destination type: pharmacy" {
		t.Fatalf("unexpected reason %q", reason)
	}
}

func TestClassifyAddressAsName(t *testing.T) {
	t.Parallel()

	c := New(DefaultRules())

	for _, name := range []string{
		"123 Main St",
		"880 Ponce De Leon Ave NE",
		"45 Peachtree Blvd",
	} {
		reason, ok := c.Classify(Input{Name: name})
		if !ok {
			t.Fatalf("%q: expected address-as-name classification", name)
		}
		if reason != ReasonAddressOnly {
			t.Fatalf("%q: expected %q, got %q", name, ReasonAddressOnly, reason)
		}
	}

	if reason, ok := c.Classify(Input{Name: "529 Bar"}); ok {
		t.Fatalf("numeric venue name misclassified as %q", reason)
	}
}
