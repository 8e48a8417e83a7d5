package extract

// TestSpec describes one known cognitive test: its printed name, the
// parenthesized abbreviation that disambiguates near-identical names, and
// the ordered metric names its table is expected to carry.
type TestSpec struct {
	Name    string
	Abbrev  string
	Metrics []string

	// WideLayout marks tests whose tables render irregularly and need the
	// wide-search strategy as a final fallback.
	WideLayout bool
}

// Catalog is the fixed set of tests the report instrument produces. Changing
// the clinical instrument means changing this table, not the extraction
// algorithm.
var Catalog = []TestSpec{
	{
		Name:   "Verbal Memory Test",
		Abbrev: "VBM",
		Metrics: []string{
			"Correct Hits Immediate",
			"Correct Passes Immediate",
			"Correct Hits Delay",
			"Correct Passes Delay",
		},
	},
	{
		Name:   "Visual Memory Test",
		Abbrev: "VIM",
		Metrics: []string{
			"Correct Hits Immediate",
			"Correct Passes Immediate",
			"Correct Hits Delay",
			"Correct Passes Delay",
		},
	},
	{
		Name:   "Finger Tapping Test",
		Abbrev: "FTT",
		Metrics: []string{
			"Right Taps Average",
			"Left Taps Average",
		},
	},
	{
		Name:   "Symbol Digit Coding",
		Abbrev: "SDC",
		Metrics: []string{
			"Correct Responses",
			"Errors",
		},
	},
	{
		Name:   "Stroop Test",
		Abbrev: "ST",
		Metrics: []string{
			"Simple Reaction Time",
			"Complex Reaction Time Correct",
			"Stroop Reaction Time Correct",
			"Commission Errors",
		},
	},
	{
		Name:   "Shifting Attention Test",
		Abbrev: "SAT",
		Metrics: []string{
			"Correct Responses",
			"Errors",
			"Correct Reaction Time",
		},
	},
	{
		Name:   "Continuous Performance Test",
		Abbrev: "CPT",
		Metrics: []string{
			"Correct Responses",
			"Omission Errors",
			"Commission Errors",
			"Choice Reaction Time Correct",
		},
	},
	{
		Name:   "Reasoning Test",
		Abbrev: "RT",
		Metrics: []string{
			"Correct Responses",
			"Average Correct Reaction Time",
			"Commission Errors",
			"Omission Errors",
		},
	},
	{
		Name:   "Four Part Continuous Performance Test",
		Abbrev: "FPCPT",
		Metrics: []string{
			"Average Correct Responses",
			"Average Reaction Time",
			"Incorrect Responses",
		},
		WideLayout: true,
	},
}

// PageTests maps a report page number to the tests expected on that page.
// The per-page short list keeps identification scoring from confusing tests
// that share metric names across pages.
var PageTests = map[int][]string{
	3: {"Verbal Memory Test", "Visual Memory Test", "Finger Tapping Test"},
	4: {"Symbol Digit Coding", "Stroop Test", "Shifting Attention Test"},
	5: {"Continuous Performance Test", "Reasoning Test"},
	6: {"Four Part Continuous Performance Test"},
}

// TestByName returns the catalogue entry for an exact test name.
func TestByName(name string) (TestSpec, bool) {
	for _, t := range Catalog {
		if t.Name == name {
			return t, true
		}
	}
	return TestSpec{}, false
}

// ExpectedOnPage returns the catalogue entries expected on the given page,
// in the page's listed order. Pages without an entry expect nothing.
func ExpectedOnPage(page int) []TestSpec {
	names, ok := PageTests[page]
	if !ok {
		return nil
	}
	specs := make([]TestSpec, 0, len(names))
	for _, n := range names {
		if spec, found := TestByName(n); found {
			specs = append(specs, spec)
		}
	}
	return specs
}
