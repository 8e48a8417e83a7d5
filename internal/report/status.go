package report

// Section names the independent record groups a document import produces.
// The importer reports a status per section so a caller can retry just the
// missing ones instead of the whole document.
type Section string

const (
	SectionPatient      Section = "Patient"
	SectionDomainScores Section = "Cognitive Scores"
	SectionSubtests     Section = "Subtests"
	SectionScreener     Section = "Symptom Screener"
	SectionNPQDomains   Section = "NPQ Domains"
	SectionNPQQuestions Section = "NPQ Questions"
	SectionCriteria     Section = "DSM Criteria"
)

// AllSections lists every section in import order.
var AllSections = []Section{
	SectionPatient,
	SectionDomainScores,
	SectionSubtests,
	SectionScreener,
	SectionNPQDomains,
	SectionNPQQuestions,
	SectionCriteria,
}

// SectionState describes the outcome of extracting one section.
type SectionState string

const (
	StateImported     SectionState = "imported"
	StateMissing      SectionState = "missing_after_parse"
	StateSkipped      SectionState = "skipped"
	StateAlreadyThere SectionState = "already_imported"
)

// SectionStatus is one entry of the per-document status list.
type SectionStatus struct {
	Section Section      `json:"section"`
	State   SectionState `json:"state"`
	Rows    int          `json:"rows"`
}

// ImportResult is the per-document outcome handed back to the caller.
type ImportResult struct {
	JobID     string          `json:"job_id"`
	Path      string          `json:"path"`
	PatientID string          `json:"patient_id,omitempty"`
	Success   bool            `json:"success"`
	Skipped   bool            `json:"skipped"` // repeat import of a known patient
	Sections  []SectionStatus `json:"sections"`
}

// Missing returns the sections that produced no rows.
func (r *ImportResult) Missing() []Section {
	var out []Section
	for _, s := range r.Sections {
		if s.State == StateMissing {
			out = append(out, s.Section)
		}
	}
	return out
}
