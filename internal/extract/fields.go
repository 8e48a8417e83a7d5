package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cognimed/cogimport/internal/config"
	"github.com/cognimed/cogimport/internal/pdfdoc"
	"github.com/cognimed/cogimport/internal/report"
)

// MissingPatientIDError aborts the whole import: every record keys on the
// patient id, so a document without one cannot be stored at all.
type MissingPatientIDError struct {
	Path string
}

func (e *MissingPatientIDError) Error() string {
	return fmt.Sprintf("no patient id found in %s", e.Path)
}

var (
	patientIDPattern = regexp.MustCompile(`(?i)Patient\s*ID:\s*([A-Za-z0-9_-]+)`)
	agePattern       = regexp.MustCompile(`(?i)Age:\s*(\d{1,3})`)
	testDatePattern  = regexp.MustCompile(`(?i)Test\s*Date:\s*([0-9]{1,2}[/.-][0-9]{1,2}[/.-][0-9]{2,4}|[A-Za-z]+\s+\d{1,2},?\s+\d{4})`)
	languagePattern  = regexp.MustCompile(`(?i)Language:\s*([A-Za-z]+)`)

	// One summary-table row: domain name, raw (or NA), standard score,
	// percentile, validity token, optional trailing marker.
	domainLinePattern = regexp.MustCompile(
		`(?m)^\s*([A-Za-z][A-Za-z /]*[A-Za-z])\s+(NA|-?\d+(?:\.\d+)?)\s+(-?\d+(?:\.\d+)?)\s+(\d+(?:\.\d+)?)\s+(Yes|No)\s*\*?\s*$`)
)

// FieldExtractor pulls patient identity fields and the cognitive-domain
// summary table out of the full document text.
type FieldExtractor struct {
	thresholds config.Thresholds
}

// NewFieldExtractor creates a field extractor with the given tuning bands.
func NewFieldExtractor(th config.Thresholds) *FieldExtractor {
	return &FieldExtractor{thresholds: th}
}

// Extract returns the patient record and domain-score rows found in doc.
// A missing patient id is fatal; every other missing field is recorded as
// unknown and the import continues.
func (f *FieldExtractor) Extract(doc *pdfdoc.Document) (report.Patient, []report.DomainScore, error) {
	text := doc.Text()

	patient := report.Patient{}
	m := patientIDPattern.FindStringSubmatch(text)
	if m == nil {
		return patient, nil, &MissingPatientIDError{Path: doc.Path}
	}
	patient.ID = m[1]

	if m := agePattern.FindStringSubmatch(text); m != nil {
		if age, err := strconv.Atoi(m[1]); err == nil {
			patient.Age = age
		}
	}
	if m := testDatePattern.FindStringSubmatch(text); m != nil {
		patient.TestDate = strings.TrimSpace(m[1])
	}
	if m := languagePattern.FindStringSubmatch(text); m != nil {
		patient.Language = m[1]
	}

	domains := f.extractDomainScores(patient.ID, text)
	return patient, domains, nil
}

// extractDomainScores matches summary-table rows line by line. Rows with a
// "No" validity token are recorded as invalid, never dropped: a clinician
// has to see that a result exists and cannot be trusted.
func (f *FieldExtractor) extractDomainScores(patientID, text string) []report.DomainScore {
	var scores []report.DomainScore
	for _, m := range domainLinePattern.FindAllStringSubmatch(text, -1) {
		raw, _ := cleanNumber(m[2], f.thresholds)
		standard, _ := cleanNumber(m[3], f.thresholds)
		percentile, _ := cleanNumber(m[4], f.thresholds)
		raw, standard, percentile = filterSlots(raw, standard, percentile, f.thresholds)

		validity := report.ValidityValid
		if m[5] == "No" {
			validity = report.ValidityInvalid
		}

		scores = append(scores, report.DomainScore{
			PatientID:  patientID,
			Domain:     strings.TrimSpace(m[1]),
			Raw:        raw,
			Standard:   standard,
			Percentile: percentile,
			Validity:   validity,
		})
	}
	return scores
}
