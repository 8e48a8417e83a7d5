package extract

import (
	"strconv"
	"strings"

	"github.com/cognimed/cogimport/internal/config"
	"github.com/cognimed/cogimport/internal/report"
)

// cleanNumber coerces one table cell into an optional score. Asterisks and
// embedded newlines are stripped before parsing; "NA", blanks and dashes are
// explicit absence; anything outside the absolute corrupted-cell bound is
// dropped to absent as well. The returned flag reports whether the cell
// carried an asterisk, the instrument's invalid-result marker.
func cleanNumber(cell string, th config.Thresholds) (score report.Score, flagged bool) {
	flagged = strings.Contains(cell, "*")

	s := strings.NewReplacer("*", "", "\n", " ", "\r", " ").Replace(cell)
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "NA") || s == "-" {
		return report.Score{}, flagged
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return report.Score{}, flagged
	}
	if v < th.AbsoluteMin || v > th.AbsoluteMax {
		// Concatenated digits from a bad cell merge, not a score.
		return report.Score{}, flagged
	}
	return report.NewScore(v), flagged
}

// plausibleStandard reports whether v can be a standard score at all.
func plausibleStandard(v float64, th config.Thresholds) bool {
	return v >= th.StandardMin && v <= th.StandardMax
}

// plausiblePercentile reports whether v can be a percentile.
func plausiblePercentile(v float64, th config.Thresholds) bool {
	return v >= th.PercentileMin && v <= th.PercentileMax
}

// filterSlots applies the per-slot plausibility bands to an ordered triple,
// dropping implausible values to absent rather than accepting them.
func filterSlots(raw, standard, percentile report.Score, th config.Thresholds) (report.Score, report.Score, report.Score) {
	if standard.OK && !plausibleStandard(standard.Value, th) {
		standard = report.Score{}
	}
	if percentile.OK && !plausiblePercentile(percentile.Value, th) {
		percentile = report.Score{}
	}
	return raw, standard, percentile
}

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
