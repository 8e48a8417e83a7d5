package extract

import "github.com/cognimed/cogimport/internal/report"

// Candidate is one possible value set for a (test, metric) key, produced by
// one strategy from one block. The candidate stream is intentionally a
// multiset: the same metric extracted from two pages, or by two strategies,
// yields two candidates, and reconciliation picks the winner.
type Candidate struct {
	Test       string
	Metric     string
	Raw        report.Score
	Standard   report.Score
	Percentile report.Score
	Validity   report.Validity

	// Strategy names the extraction path that produced the values.
	Strategy string

	// Confidence is the source table's extraction accuracy in percent.
	// Absent for values mined from free-text blocks.
	Confidence report.Score
}

// presentValues counts the non-absent members of the raw/standard/percentile
// triple.
func (c Candidate) presentValues() int {
	n := 0
	for _, s := range []report.Score{c.Raw, c.Standard, c.Percentile} {
		if s.OK {
			n++
		}
	}
	return n
}

// empty reports whether the candidate carries no values at all.
func (c Candidate) empty() bool { return c.presentValues() == 0 }

// Metric converts a winning candidate into its output record.
func (c Candidate) record(patientID string) report.SubtestMetric {
	return report.SubtestMetric{
		PatientID:  patientID,
		Test:       c.Test,
		Metric:     c.Metric,
		Raw:        c.Raw,
		Standard:   c.Standard,
		Percentile: c.Percentile,
		Validity:   c.Validity,
	}
}
