package extract

import "github.com/cognimed/cogimport/internal/report"

// Presentation is the categorical diagnosis derived from the criteria tally.
type Presentation string

const (
	PresentationCombined    Presentation = "Combined Presentation"
	PresentationInattentive Presentation = "Predominantly Inattentive Presentation"
	PresentationHyperactive Presentation = "Predominantly Hyperactive-Impulsive Presentation"
	PresentationNone        Presentation = "No Qualifying Presentation"
)

// presentationThreshold is the DSM-5 criterion count at which a category
// qualifies.
const presentationThreshold = 5

// criterionSpec fixes the mapping from one screener question to its DSM-5
// criterion: the criterion id, its category, and the minimum response level
// at which the criterion counts as met.
type criterionSpec struct {
	Question    int
	CriterionID string
	Category    report.Category
	MinResponse report.ResponseLevel
}

// dsmCriteria is the full 18-question mapping. Inattention questions map to
// A1-A9 and hyperactivity/impulsivity questions to B1-B9 in question order.
// Most criteria require at least "Often"; the screener's shaded items
// (1, 2, 3, 9, 12, 16, 18) already count at "Sometimes".
var dsmCriteria = []criterionSpec{
	{Question: 1, CriterionID: "A1", Category: report.CategoryInattention, MinResponse: report.ResponseSometimes},
	{Question: 2, CriterionID: "A2", Category: report.CategoryInattention, MinResponse: report.ResponseSometimes},
	{Question: 3, CriterionID: "A3", Category: report.CategoryInattention, MinResponse: report.ResponseSometimes},
	{Question: 4, CriterionID: "A4", Category: report.CategoryInattention, MinResponse: report.ResponseOften},
	{Question: 5, CriterionID: "B1", Category: report.CategoryHyperactivity, MinResponse: report.ResponseOften},
	{Question: 6, CriterionID: "B2", Category: report.CategoryHyperactivity, MinResponse: report.ResponseOften},
	{Question: 7, CriterionID: "A5", Category: report.CategoryInattention, MinResponse: report.ResponseOften},
	{Question: 8, CriterionID: "A6", Category: report.CategoryInattention, MinResponse: report.ResponseOften},
	{Question: 9, CriterionID: "A7", Category: report.CategoryInattention, MinResponse: report.ResponseSometimes},
	{Question: 10, CriterionID: "A8", Category: report.CategoryInattention, MinResponse: report.ResponseOften},
	{Question: 11, CriterionID: "A9", Category: report.CategoryInattention, MinResponse: report.ResponseOften},
	{Question: 12, CriterionID: "B3", Category: report.CategoryHyperactivity, MinResponse: report.ResponseSometimes},
	{Question: 13, CriterionID: "B4", Category: report.CategoryHyperactivity, MinResponse: report.ResponseOften},
	{Question: 14, CriterionID: "B5", Category: report.CategoryHyperactivity, MinResponse: report.ResponseOften},
	{Question: 15, CriterionID: "B6", Category: report.CategoryHyperactivity, MinResponse: report.ResponseOften},
	{Question: 16, CriterionID: "B7", Category: report.CategoryHyperactivity, MinResponse: report.ResponseSometimes},
	{Question: 17, CriterionID: "B8", Category: report.CategoryHyperactivity, MinResponse: report.ResponseOften},
	{Question: 18, CriterionID: "B9", Category: report.CategoryHyperactivity, MinResponse: report.ResponseSometimes},
}

// MapCriteria applies the fixed criteria table to the screener responses
// and returns one criterion row per answered question plus the derived
// presentation. It is state-free: the same responses always produce the
// same rows and diagnosis.
func MapCriteria(patientID string, responses []report.ScreenerResponse) ([]report.DSMCriterion, Presentation) {
	byQuestion := make(map[int]report.ResponseLevel, len(responses))
	for _, r := range responses {
		byQuestion[r.Question] = r.Response
	}

	var criteria []report.DSMCriterion
	inattentive, hyperactive := 0, 0
	for _, spec := range dsmCriteria {
		level, answered := byQuestion[spec.Question]
		if !answered {
			continue
		}
		met := level >= spec.MinResponse
		criteria = append(criteria, report.DSMCriterion{
			PatientID:   patientID,
			CriterionID: spec.CriterionID,
			Category:    spec.Category,
			Met:         met,
		})
		if met {
			switch spec.Category {
			case report.CategoryInattention:
				inattentive++
			case report.CategoryHyperactivity:
				hyperactive++
			}
		}
	}

	return criteria, Diagnose(inattentive, hyperactive)
}

// Diagnose is a pure function of the two criteria counts, total over
// [0,9]x[0,9].
func Diagnose(inattentive, hyperactive int) Presentation {
	switch {
	case inattentive >= presentationThreshold && hyperactive >= presentationThreshold:
		return PresentationCombined
	case inattentive >= presentationThreshold:
		return PresentationInattentive
	case hyperactive >= presentationThreshold:
		return PresentationHyperactive
	default:
		return PresentationNone
	}
}
