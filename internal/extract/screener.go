package extract

import (
	"sort"

	"github.com/cognimed/cogimport/internal/pdfdoc"
	"github.com/cognimed/cogimport/internal/report"
)

// markGlyphs are the characters the form renderer emits for a checked box.
var markGlyphs = map[string]bool{
	"X": true,
	"x": true,
	"✗": true,
	"✓": true,
	"☒": true,
	"■": true,
}

// ScreenerExtractor reads the 18-question symptom screener geometrically:
// a mark glyph belongs to whichever calibrated checkbox rectangle contains
// its center point.
type ScreenerExtractor struct {
	calibration *Calibration
}

// NewScreenerExtractor creates a screener extractor for a calibrated layout.
func NewScreenerExtractor(cal *Calibration) *ScreenerExtractor {
	return &ScreenerExtractor{calibration: cal}
}

// Extract returns one response per question that has a matched mark. A
// question with no mark in any calibrated box is simply absent: partial
// questionnaires must not abort the import.
func (s *ScreenerExtractor) Extract(doc *pdfdoc.Document, patientID string) []report.ScreenerResponse {
	if s.calibration == nil || len(s.calibration.Boxes) == 0 {
		return nil
	}

	type qkey struct {
		part     report.Part
		question int
	}
	matched := make(map[qkey]report.ResponseLevel)

	for _, box := range s.calibration.Boxes {
		page := doc.PageByNumber(box.Page)
		if page == nil {
			continue
		}
		key := qkey{box.Part, box.Question}
		if _, done := matched[key]; done {
			continue
		}
		for _, word := range page.Words {
			if !markGlyphs[word.Text] {
				continue
			}
			if box.Rect.Contains(word.Rect.Center()) {
				matched[key] = box.Response
				break
			}
		}
	}

	responses := make([]report.ScreenerResponse, 0, len(matched))
	for key, level := range matched {
		responses = append(responses, report.ScreenerResponse{
			PatientID: patientID,
			Part:      key.part,
			Question:  key.question,
			Response:  level,
		})
	}
	sort.Slice(responses, func(i, j int) bool {
		return responses[i].Question < responses[j].Question
	})
	return responses
}
