package extract

import (
	"strings"

	"github.com/cognimed/cogimport/internal/config"
	"github.com/cognimed/cogimport/internal/pdfdoc"
	"github.com/cognimed/cogimport/internal/report"
)

// Identification scoring weights. An exact test-name hit dominates; the
// abbreviation only has to separate near-identical names; metric hits
// accumulate as supporting evidence.
const (
	scoreExactName      = 100
	scoreAbbrevNearName = 50
	scoreMetricExact    = 10
	scoreMetricPartial  = 4
)

// SubtestExtractor locates each known test's table or text block on a page
// and mines it for per-metric value triples.
type SubtestExtractor struct {
	thresholds config.Thresholds
}

// NewSubtestExtractor creates a subtest extractor with the given tuning.
func NewSubtestExtractor(th config.Thresholds) *SubtestExtractor {
	return &SubtestExtractor{thresholds: th}
}

// Extract runs over every page of the document and returns the raw candidate
// multiset. Duplicates and conflicts across pages or strategies are expected;
// reconciliation is a separate pass.
func (s *SubtestExtractor) Extract(doc *pdfdoc.Document) []Candidate {
	var candidates []Candidate
	for i := range doc.Pages {
		page := &doc.Pages[i]
		expected := ExpectedOnPage(page.Number)
		if len(expected) == 0 {
			continue
		}
		candidates = append(candidates, s.ExtractPage(page, expected)...)
	}
	return candidates
}

// ExtractPage mines one page's blocks for the tests expected there.
func (s *SubtestExtractor) ExtractPage(page *pdfdoc.Page, expected []TestSpec) []Candidate {
	var candidates []Candidate
	for _, block := range page.Blocks {
		// A table the layout engine could not read reliably must not
		// silently inject bad numbers.
		if block.IsTable() && block.TableAccuracy < s.thresholds.MinTableAccuracy {
			continue
		}

		spec, ok := identifyTest(block, expected)
		if !ok {
			continue
		}
		candidates = append(candidates, s.extractBlock(block, spec)...)
	}
	return candidates
}

// identifyTest scores each expected test against the block and returns the
// best match above zero. Ties break by position in the expected list, so the
// page catalogue's order is the final arbiter. No match means the block is
// simply not a test table and is skipped.
func identifyTest(block pdfdoc.Block, expected []TestSpec) (TestSpec, bool) {
	text := block.Text()
	best := TestSpec{}
	bestScore := 0
	for _, spec := range expected {
		if score := scoreTestMatch(text, spec); score > bestScore {
			best = spec
			bestScore = score
		}
	}
	return best, bestScore > 0
}

// scoreTestMatch rates how well a block's text matches one test identity.
func scoreTestMatch(text string, spec TestSpec) int {
	score := 0

	if containsFold(text, spec.Name) {
		score += scoreExactName
	} else if containsFold(text, "("+spec.Abbrev+")") && nearNameMatch(text, spec.Name) {
		// The abbreviation separates tests whose names differ by a single
		// word, like the two memory tests differing only by modality.
		score += scoreAbbrevNearName
	}

	for _, metric := range spec.Metrics {
		switch {
		case containsFold(text, metric):
			score += scoreMetricExact
		case partialMetricMatch(text, metric):
			score += scoreMetricPartial
		}
	}

	return score
}

// nearNameMatch reports whether most of the test name's words appear in the
// text, tolerating one dropped or mangled word.
func nearNameMatch(text, name string) bool {
	words := strings.Fields(name)
	if len(words) == 0 {
		return false
	}
	hits := 0
	for _, w := range words {
		if containsFold(text, w) {
			hits++
		}
	}
	return hits >= len(words)-1
}

// partialMetricMatch reports whether at least half of a metric name's words
// appear in the text.
func partialMetricMatch(text, metric string) bool {
	words := strings.Fields(metric)
	if len(words) < 2 {
		return false
	}
	hits := 0
	for _, w := range words {
		if containsFold(text, w) {
			hits++
		}
	}
	return hits*2 >= len(words)
}

// extractBlock runs the strategy chain for every expected metric of the
// identified test. Strategies run in priority order until one produces a
// complete triple; a partial result is kept but never stops the chain.
func (s *SubtestExtractor) extractBlock(block pdfdoc.Block, spec TestSpec) []Candidate {
	g := make(grid, len(block.Lines))
	for i, line := range block.Lines {
		g[i] = line.Cells()
	}

	confidence := report.Score{}
	if block.IsTable() {
		confidence = report.NewScore(block.TableAccuracy)
	}

	var candidates []Candidate
	for _, metric := range spec.Metrics {
		loc, found := locateMetric(g, metric)
		if !found {
			continue
		}

		var best triple
		var bestStrategy string
		for _, st := range strategiesFor(spec) {
			t := st.extract(g, loc, s.thresholds)
			if t.present() > best.present() {
				best = t
				bestStrategy = st.name()
			}
			if best.present() == 3 {
				break
			}
		}
		if best.present() == 0 {
			continue
		}

		validity := report.ValidityUnknown
		if best.flagged {
			validity = report.ValidityInvalid
		}

		candidates = append(candidates, Candidate{
			Test:       spec.Name,
			Metric:     metric,
			Raw:        best.raw,
			Standard:   best.standard,
			Percentile: best.percentile,
			Validity:   validity,
			Strategy:   bestStrategy,
			Confidence: confidence,
		})
	}
	return candidates
}
