package extract

import (
	"sort"
	"strings"

	"github.com/cognimed/cogimport/internal/config"
	"github.com/cognimed/cogimport/internal/report"
)

// Reconciler collapses the candidate multiset into one row per
// (test, metric) key.
//
// Precedence, applied pairwise: field completeness first, then the
// plausible standard-score band, then the percentile band, then source
// confidence as the final tiebreaker. Completeness outranks confidence:
// a confident table row missing two values must not beat a complete
// text-row extraction. The fold is order-independent, which the importer's
// idempotence contract depends on.
type Reconciler struct {
	thresholds config.Thresholds
}

// NewReconciler creates a reconciler with the given tuning bands.
func NewReconciler(th config.Thresholds) *Reconciler {
	return &Reconciler{thresholds: th}
}

// Reconcile selects one winning candidate per key and returns the resulting
// metric rows in catalogue order.
func (r *Reconciler) Reconcile(patientID string, candidates []Candidate) []report.SubtestMetric {
	type key struct{ test, metric string }

	winners := make(map[key]Candidate)
	for _, c := range candidates {
		if c.empty() {
			continue
		}
		k := key{c.Test, c.Metric}
		if cur, ok := winners[k]; ok {
			winners[k] = r.better(cur, c)
		} else {
			winners[k] = c
		}
	}

	metrics := make([]report.SubtestMetric, 0, len(winners))
	for _, c := range winners {
		metrics = append(metrics, c.record(patientID))
	}

	// Catalogue order, so the output is stable for any candidate order.
	rank := make(map[key]int)
	i := 0
	for _, spec := range Catalog {
		for _, m := range spec.Metrics {
			rank[key{spec.Name, m}] = i
			i++
		}
	}
	sort.SliceStable(metrics, func(a, b int) bool {
		return rank[key{metrics[a].Test, metrics[a].Metric}] < rank[key{metrics[b].Test, metrics[b].Metric}]
	})

	return metrics
}

// better picks the winner of two candidates sharing a key. It is a total,
// deterministic ordering: for any pair it returns the same winner whichever
// argument order they arrive in.
func (r *Reconciler) better(a, b Candidate) Candidate {
	// Rule 1: strictly more non-absent values wins.
	if n, m := a.presentValues(), b.presentValues(); n != m {
		if n > m {
			return a
		}
		return b
	}

	// Rule 2: a standard score inside the plausible band beats one outside.
	if ia, ib := r.standardInBand(a), r.standardInBand(b); ia != ib {
		if ia {
			return a
		}
		return b
	}

	// Rule 2b: likewise for percentile.
	if ia, ib := r.percentileInBand(a), r.percentileInBand(b); ia != ib {
		if ia {
			return a
		}
		return b
	}

	// Rule 3: source confidence, when available, breaks remaining ties.
	// A gated table row outranks an ungated text row.
	if a.Confidence.OK != b.Confidence.OK {
		if a.Confidence.OK {
			return a
		}
		return b
	}
	if a.Confidence.OK && a.Confidence.Value != b.Confidence.Value {
		if a.Confidence.Value > b.Confidence.Value {
			return a
		}
		return b
	}

	// Full tie: fall back to a fixed total order on the values themselves
	// so the fold stays order-independent for any multiset.
	if c := compareCandidates(a, b); c <= 0 {
		return a
	}
	return b
}

func (r *Reconciler) standardInBand(c Candidate) bool {
	return c.Standard.OK &&
		c.Standard.Value >= r.thresholds.StandardPlausibleLow &&
		c.Standard.Value <= r.thresholds.StandardPlausibleHigh
}

func (r *Reconciler) percentileInBand(c Candidate) bool {
	return c.Percentile.OK &&
		c.Percentile.Value >= r.thresholds.PercentileMin &&
		c.Percentile.Value <= r.thresholds.PercentileMax
}

// compareCandidates defines an arbitrary but fixed total order over
// candidates that tie on every selection rule.
func compareCandidates(a, b Candidate) int {
	if c := compareScores(a.Raw, b.Raw); c != 0 {
		return c
	}
	if c := compareScores(a.Standard, b.Standard); c != 0 {
		return c
	}
	if c := compareScores(a.Percentile, b.Percentile); c != 0 {
		return c
	}
	if c := strings.Compare(a.Strategy, b.Strategy); c != 0 {
		return c
	}
	return strings.Compare(string(a.Validity), string(b.Validity))
}

func compareScores(a, b report.Score) int {
	switch {
	case a.OK != b.OK:
		if a.OK {
			return -1
		}
		return 1
	case !a.OK:
		return 0
	case a.Value < b.Value:
		return -1
	case a.Value > b.Value:
		return 1
	default:
		return 0
	}
}
