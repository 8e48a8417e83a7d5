package extract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognimed/cogimport/internal/pdfdoc"
	"github.com/cognimed/cogimport/internal/report"
)

func calibrationJSON(rows ...string) []byte {
	out := "["
	for i, r := range rows {
		if i > 0 {
			out += ","
		}
		out += r
	}
	return []byte(out + "]")
}

func calRow(part string, question int, response string, page int, x0, y0, x1, y1 float64) string {
	return fmt.Sprintf(
		`{"part":%q,"question":%d,"response":%q,"page":%d,"rect":{"x0":%v,"y0":%v,"x1":%v,"y1":%v}}`,
		part, question, response, page, x0, y0, x1, y1)
}

func TestParseCalibration(t *testing.T) {
	cal, err := ParseCalibration(calibrationJSON(
		calRow("A", 1, "Never", 2, 100, 700, 120, 715),
		calRow("B", 16, "Often", 3, 250, 400, 270, 415),
	))
	require.NoError(t, err)
	require.Len(t, cal.Boxes, 2)

	assert.Equal(t, report.PartA, cal.Boxes[0].Part)
	assert.Equal(t, 1, cal.Boxes[0].Question)
	assert.Equal(t, report.ResponseNever, cal.Boxes[0].Response)
	assert.Equal(t, report.ResponseOften, cal.Boxes[1].Response)
}

func TestParseCalibration_RejectsMalformedRows(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"question out of range", calibrationJSON(calRow("A", 19, "Never", 2, 0, 0, 1, 1))},
		{"unknown part", calibrationJSON(calRow("C", 1, "Never", 2, 0, 0, 1, 1))},
		{"unknown response", calibrationJSON(calRow("A", 1, "Always", 2, 0, 0, 1, 1))},
		{"missing rect", []byte(`[{"part":"A","question":1,"response":"Never","page":2}]`)},
		{"not an array", []byte(`{"part":"A"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCalibration(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestScreenerExtractor_GeometricMatch(t *testing.T) {
	cal, err := ParseCalibration(calibrationJSON(
		calRow("A", 1, "Never", 2, 100, 700, 130, 715),
		calRow("A", 1, "Often", 2, 200, 700, 230, 715),
		calRow("A", 2, "Sometimes", 2, 100, 660, 130, 675),
		calRow("B", 16, "Often", 2, 200, 500, 230, 515),
	))
	require.NoError(t, err)

	// Marks: question 1 checked at "Often", question 16 at "Often";
	// question 2 has no mark anywhere.
	page := pdfdoc.LayoutPage(2, []pdfdoc.Word{
		{Text: "X", Rect: pdfdoc.Rect{
			LowerLeft: pdfdoc.Point{X: 210, Y: 702}, UpperRight: pdfdoc.Point{X: 218, Y: 712}}},
		{Text: "X", Rect: pdfdoc.Rect{
			LowerLeft: pdfdoc.Point{X: 205, Y: 503}, UpperRight: pdfdoc.Point{X: 213, Y: 513}}},
		{Text: "unrelated", Rect: pdfdoc.Rect{
			LowerLeft: pdfdoc.Point{X: 105, Y: 662}, UpperRight: pdfdoc.Point{X: 160, Y: 672}}},
	})
	doc := docFromPages(page)

	se := NewScreenerExtractor(cal)
	responses := se.Extract(doc, "PT-1")
	require.Len(t, responses, 2, "unmarked questions are absent, not errors")

	assert.Equal(t, 1, responses[0].Question)
	assert.Equal(t, report.PartA, responses[0].Part)
	assert.Equal(t, report.ResponseOften, responses[0].Response)

	assert.Equal(t, 16, responses[1].Question)
	assert.Equal(t, report.PartB, responses[1].Part)
	assert.Equal(t, report.ResponseOften, responses[1].Response)
}

func TestScreenerExtractor_MarkOutsideAllBoxes(t *testing.T) {
	cal, err := ParseCalibration(calibrationJSON(
		calRow("A", 1, "Never", 2, 100, 700, 130, 715),
	))
	require.NoError(t, err)

	page := pdfdoc.LayoutPage(2, []pdfdoc.Word{
		{Text: "X", Rect: pdfdoc.Rect{
			LowerLeft: pdfdoc.Point{X: 400, Y: 100}, UpperRight: pdfdoc.Point{X: 408, Y: 110}}},
	})

	se := NewScreenerExtractor(cal)
	assert.Empty(t, se.Extract(docFromPages(page), "PT-1"))
}

func TestScreenerExtractor_NilCalibration(t *testing.T) {
	se := NewScreenerExtractor(nil)
	assert.Empty(t, se.Extract(docFromLines("anything"), "PT-1"))
}
