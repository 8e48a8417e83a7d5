package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cognimed/cogimport/internal/pdfdoc"
	"github.com/cognimed/cogimport/internal/report"
)

// calibrationSchema constrains the operator-edited calibration file. A
// malformed row has to fail at startup, not halfway through a batch import.
var calibrationSchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"part":     map[string]any{"type": "string", "enum": []string{"A", "B"}},
			"question": map[string]any{"type": "integer", "minimum": 1, "maximum": 18},
			"response": map[string]any{
				"type": "string",
				"enum": []string{"Never", "Rarely", "Sometimes", "Often", "Very Often"},
			},
			"page": map[string]any{"type": "integer", "minimum": 1},
			"rect": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"x0": map[string]any{"type": "number"},
					"y0": map[string]any{"type": "number"},
					"x1": map[string]any{"type": "number"},
					"y1": map[string]any{"type": "number"},
				},
				"required": []string{"x0", "y0", "x1", "y1"},
			},
		},
		"required": []string{"part", "question", "response", "page", "rect"},
	},
}

// CalibrationBox maps one (part, question, response) cell of the screener
// form to its checkbox rectangle on a known page.
type CalibrationBox struct {
	Part     report.Part
	Question int
	Response report.ResponseLevel
	Page     int
	Rect     pdfdoc.Rect
}

// Calibration is the loaded checkbox layout of the screener form.
type Calibration struct {
	Boxes []CalibrationBox
}

type calibrationRow struct {
	Part     string `json:"part"`
	Question int    `json:"question"`
	Response string `json:"response"`
	Page     int    `json:"page"`
	Rect     struct {
		X0 float64 `json:"x0"`
		Y0 float64 `json:"y0"`
		X1 float64 `json:"x1"`
		Y1 float64 `json:"y1"`
	} `json:"rect"`
}

// LoadCalibration reads and validates the calibration file.
func LoadCalibration(path string) (*Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}
	return ParseCalibration(data)
}

// ParseCalibration validates raw calibration JSON against the schema and
// converts it into typed boxes.
func ParseCalibration(data []byte) (*Calibration, error) {
	if err := validateCalibration(data); err != nil {
		return nil, err
	}

	var rows []calibrationRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal calibration: %w", err)
	}

	cal := &Calibration{Boxes: make([]CalibrationBox, 0, len(rows))}
	for _, row := range rows {
		level, ok := report.ParseResponseLevel(row.Response)
		if !ok {
			return nil, fmt.Errorf("unknown response category %q", row.Response)
		}
		cal.Boxes = append(cal.Boxes, CalibrationBox{
			Part:     report.Part(row.Part),
			Question: row.Question,
			Response: level,
			Page:     row.Page,
			Rect: pdfdoc.Rect{
				LowerLeft:  pdfdoc.Point{X: row.Rect.X0, Y: row.Rect.Y0},
				UpperRight: pdfdoc.Point{X: row.Rect.X1, Y: row.Rect.Y1},
			},
		})
	}
	return cal, nil
}

func validateCalibration(data []byte) error {
	b, err := json.Marshal(calibrationSchema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("calibration.schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("calibration.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal calibration: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("calibration does not match schema: %w", err)
	}
	return nil
}
