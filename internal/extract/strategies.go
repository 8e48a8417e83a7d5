package extract

import (
	"strings"

	"github.com/cognimed/cogimport/internal/config"
	"github.com/cognimed/cogimport/internal/report"
)

const (
	// sameRowScanWidth is how many cells to the right of a metric name the
	// same-row strategy inspects.
	sameRowScanWidth = 6

	// wideSearchRowsBefore and wideSearchRowsAfter bound the wide-search
	// scan window around the metric-name row.
	wideSearchRowsBefore = 1
	wideSearchRowsAfter  = 2
)

// grid is a block rendered as rows of cells. Rows come from the block's
// lines, cells from each line's positioned words.
type grid [][]string

// triple is one strategy's result for a single metric.
type triple struct {
	raw, standard, percentile report.Score
	flagged                   bool
}

func (t triple) present() int {
	n := 0
	for _, s := range []report.Score{t.raw, t.standard, t.percentile} {
		if s.OK {
			n++
		}
	}
	return n
}

// strategy is one way of locating a metric's value triple in a grid. The
// extractor runs strategies in priority order; each is a fallback for the
// one before it.
type strategy interface {
	name() string
	extract(g grid, loc metricLocation, th config.Thresholds) triple
}

// metricLocation records where a metric name was found in a grid.
type metricLocation struct {
	row      int
	startCol int // first cell of the metric name
	endCol   int // last cell of the metric name
}

// locateMetric finds the row and cell span holding the metric name. Metric
// names span a variable number of cells depending on how the renderer split
// the text, so the search matches the name against growing runs of cells.
func locateMetric(g grid, metric string) (metricLocation, bool) {
	target := normalize(metric)
	for rowIdx, row := range g {
		for start := range row {
			joined := ""
			for end := start; end < len(row); end++ {
				if joined == "" {
					joined = normalize(row[end])
				} else {
					joined += " " + normalize(row[end])
				}
				if joined == target {
					return metricLocation{row: rowIdx, startCol: start, endCol: end}, true
				}
				if !strings.HasPrefix(target, joined) {
					break
				}
			}
		}
	}
	return metricLocation{}, false
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// scanCells parses a run of cells into an ordered triple, applying the
// per-slot plausibility filter.
func scanCells(cells []string, th config.Thresholds) triple {
	var t triple
	var values []report.Score
	for _, cell := range cells {
		if len(values) == 3 {
			break
		}
		score, flagged := cleanNumber(cell, th)
		if flagged {
			t.flagged = true
		}
		if score.OK {
			values = append(values, score)
		}
	}
	if len(values) > 0 {
		t.raw = values[0]
	}
	if len(values) > 1 {
		t.standard = values[1]
	}
	if len(values) > 2 {
		t.percentile = values[2]
	}
	t.raw, t.standard, t.percentile = filterSlots(t.raw, t.standard, t.percentile, th)
	return t
}

// sameRowStrategy scans the cells to the right of the metric name on its own
// row. The common, well-behaved table layout.
type sameRowStrategy struct{}

func (sameRowStrategy) name() string { return "same_row" }

func (sameRowStrategy) extract(g grid, loc metricLocation, th config.Thresholds) triple {
	row := g[loc.row]
	from := loc.endCol + 1
	to := from + sameRowScanWidth
	if from >= len(row) {
		return triple{}
	}
	if to > len(row) {
		to = len(row)
	}
	return scanCells(row[from:to], th)
}

// nextRowStrategy repeats the scan one row below, over a widened column
// range starting at the metric name's own column. Catches layouts where the
// renderer wrapped the values under the label.
type nextRowStrategy struct{}

func (nextRowStrategy) name() string { return "next_row" }

func (nextRowStrategy) extract(g grid, loc metricLocation, th config.Thresholds) triple {
	if loc.row+1 >= len(g) {
		return triple{}
	}
	row := g[loc.row+1]
	from := loc.startCol
	if from >= len(row) {
		from = 0
	}
	return scanCells(row[from:], th)
}

// wideSearchStrategy scans a window of rows around the metric name over all
// columns, skipping only the name cells themselves. Reserved for tests whose
// tables render irregularly, notably the four-part continuous performance
// test.
type wideSearchStrategy struct{}

func (wideSearchStrategy) name() string { return "wide_search" }

func (wideSearchStrategy) extract(g grid, loc metricLocation, th config.Thresholds) triple {
	first := loc.row - wideSearchRowsBefore
	if first < 0 {
		first = 0
	}
	last := loc.row + wideSearchRowsAfter
	if last >= len(g) {
		last = len(g) - 1
	}

	var cells []string
	for rowIdx := first; rowIdx <= last; rowIdx++ {
		for colIdx, cell := range g[rowIdx] {
			if rowIdx == loc.row && colIdx >= loc.startCol && colIdx <= loc.endCol {
				continue
			}
			cells = append(cells, cell)
		}
	}
	return scanCells(cells, th)
}

// strategiesFor returns the ordered fallback chain for a test.
func strategiesFor(spec TestSpec) []strategy {
	chain := []strategy{sameRowStrategy{}, nextRowStrategy{}}
	if spec.WideLayout {
		chain = append(chain, wideSearchStrategy{})
	}
	return chain
}
