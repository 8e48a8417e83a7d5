package report

// Validity is the clinician-facing trust marker on a score row. It is
// independent of whether the score itself was extracted: an invalid row is
// still recorded so it stays visible downstream.
type Validity string

const (
	ValidityUnknown Validity = "unknown"
	ValidityValid   Validity = "valid"
	ValidityInvalid Validity = "invalid"
)

// Score is an optional numeric value. The zero value means absent; textual
// "NA", blank cells and implausible numbers all collapse to absent rather
// than zero.
type Score struct {
	Value float64 `json:"value"`
	OK    bool    `json:"ok"`
}

// NewScore returns a present Score.
func NewScore(v float64) Score {
	return Score{Value: v, OK: true}
}

// Patient is the anchor record every other record references. It is created
// once per imported document and never mutated afterwards.
type Patient struct {
	ID        string `json:"id"`
	TestDate  string `json:"test_date"`
	Age       int    `json:"age"` // 0 when not found in the document
	Language  string `json:"language"`
	Diagnosis string `json:"diagnosis,omitempty"`
}

// DomainScore is one row of the cognitive-domain summary table.
type DomainScore struct {
	PatientID  string   `json:"patient_id"`
	Domain     string   `json:"domain"`
	Raw        Score    `json:"raw"`
	Standard   Score    `json:"standard"`
	Percentile Score    `json:"percentile"`
	Validity   Validity `json:"validity"`
}

// SubtestMetric is one reconciled metric of one named cognitive test.
type SubtestMetric struct {
	PatientID  string   `json:"patient_id"`
	Test       string   `json:"test"`
	Metric     string   `json:"metric"`
	Raw        Score    `json:"raw"`
	Standard   Score    `json:"standard"`
	Percentile Score    `json:"percentile"`
	Validity   Validity `json:"validity"`
}

// Part identifies the half of the symptom screener a question belongs to.
type Part string

const (
	PartA Part = "A"
	PartB Part = "B"
)

// ResponseLevel is the fixed 5-point ordinal scale of the symptom screener.
type ResponseLevel int

const (
	ResponseNever ResponseLevel = iota
	ResponseRarely
	ResponseSometimes
	ResponseOften
	ResponseVeryOften
)

var responseNames = map[ResponseLevel]string{
	ResponseNever:     "Never",
	ResponseRarely:    "Rarely",
	ResponseSometimes: "Sometimes",
	ResponseOften:     "Often",
	ResponseVeryOften: "Very Often",
}

func (r ResponseLevel) String() string {
	if name, ok := responseNames[r]; ok {
		return name
	}
	return "Unknown"
}

// ParseResponseLevel maps the printed label back to its ordinal level.
func ParseResponseLevel(s string) (ResponseLevel, bool) {
	for level, name := range responseNames {
		if name == s {
			return level, true
		}
	}
	return 0, false
}

// ScreenerResponse is one answered question of the 18-item symptom screener.
type ScreenerResponse struct {
	PatientID string        `json:"patient_id"`
	Part      Part          `json:"part"`
	Question  int           `json:"question"` // 1-18
	Response  ResponseLevel `json:"response"`
}

// NPQDomainScore is one per-domain severity summary row of the
// neuropsychiatric questionnaire.
type NPQDomainScore struct {
	PatientID string `json:"patient_id"`
	Domain    string `json:"domain"`
	Score     Score  `json:"score"`
	Severity  string `json:"severity"`
}

// NPQQuestionResponse is one per-question detail row of the
// neuropsychiatric questionnaire.
type NPQQuestionResponse struct {
	PatientID string `json:"patient_id"`
	Domain    string `json:"domain"`
	Question  int    `json:"question"`
	Text      string `json:"text"`
	Score     Score  `json:"score"`
	Severity  string `json:"severity"`
}

// Category is a DSM-5 ADHD criterion category.
type Category string

const (
	CategoryInattention   Category = "Inattention"
	CategoryHyperactivity Category = "Hyperactivity/Impulsivity"
)

// DSMCriterion records whether one DSM-5 criterion was met for a patient.
type DSMCriterion struct {
	PatientID   string   `json:"patient_id"`
	CriterionID string   `json:"criterion_id"` // e.g. "A3", "B7"
	Category    Category `json:"category"`
	Met         bool     `json:"met"`
}

// DocumentRecords bundles everything extracted from a single report so the
// store can persist it in one transaction.
type DocumentRecords struct {
	Patient      Patient
	Domains      []DomainScore
	Subtests     []SubtestMetric
	Screener     []ScreenerResponse
	NPQDomains   []NPQDomainScore
	NPQQuestions []NPQQuestionResponse
	Criteria     []DSMCriterion
}
