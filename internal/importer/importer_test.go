package importer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognimed/cogimport/internal/config"
	"github.com/cognimed/cogimport/internal/extract"
	"github.com/cognimed/cogimport/internal/pdfdoc"
	"github.com/cognimed/cogimport/internal/report"
	"github.com/cognimed/cogimport/internal/store"
)

func testWord(text string, col int, y float64) pdfdoc.Word {
	x := float64(40 + col*90)
	return pdfdoc.Word{
		Text: text,
		Rect: pdfdoc.Rect{
			LowerLeft:  pdfdoc.Point{X: x, Y: y},
			UpperRight: pdfdoc.Point{X: x + 60, Y: y + 12},
		},
	}
}

func pageFromRows(number int, rows [][]string) pdfdoc.Page {
	var words []pdfdoc.Word
	y := 720.0
	for _, row := range rows {
		for col, cell := range row {
			words = append(words, testWord(cell, col, y))
		}
		y -= 16
	}
	return pdfdoc.LayoutPage(number, words)
}

// patientPage holds the demographic fields and one domain summary line.
func patientPage() pdfdoc.Page {
	return pageFromRows(1, [][]string{
		{"Patient ID: PT-5001"},
		{"Age: 34"},
		{"Test Date: 03/01/2024"},
		{"Language: English"},
		{"Executive Function 45 88 21 Yes"},
	})
}

func stroopPage() pdfdoc.Page {
	return pageFromRows(4, [][]string{
		{"Stroop Test (ST)"},
		{"Simple Reaction Time", "245", "103", "58"},
		{"Complex Reaction Time Correct", "512", "95", "37"},
	})
}

func testDocument(pages ...pdfdoc.Page) *pdfdoc.Document {
	return &pdfdoc.Document{Path: "/reports/pt-5001.pdf", Pages: pages}
}

func newTestImporter(t *testing.T, reparse bool) (*Importer, *store.SQLiteStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.NewSQLiteStore(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.DefaultConfig()
	cfg.Reparse = reparse
	return New(cfg, nil, st, logger), st
}

func statusFor(statuses []report.SectionStatus, section report.Section) report.SectionStatus {
	for _, s := range statuses {
		if s.Section == section {
			return s
		}
	}
	return report.SectionStatus{}
}

func TestImporter_ImportDocument(t *testing.T) {
	imp, st := newTestImporter(t, false)
	ctx := context.Background()

	result, err := imp.ImportDocument(ctx, testDocument(patientPage(), stroopPage()))
	require.NoError(t, err)

	assert.NotEmpty(t, result.JobID)
	assert.Equal(t, "PT-5001", result.PatientID)
	assert.True(t, result.Success)
	assert.False(t, result.Skipped)
	require.Len(t, result.Sections, len(report.AllSections))

	assert.Equal(t, report.StateImported, statusFor(result.Sections, report.SectionPatient).State)
	assert.Equal(t, report.StateImported, statusFor(result.Sections, report.SectionDomainScores).State)
	assert.Equal(t, report.StateImported, statusFor(result.Sections, report.SectionSubtests).State)
	assert.Equal(t, report.StateMissing, statusFor(result.Sections, report.SectionScreener).State)
	assert.Equal(t, report.StateMissing, statusFor(result.Sections, report.SectionNPQDomains).State)

	has, err := st.HasPatient(ctx, "PT-5001")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestImporter_UnansweredScreenerYieldsNoDiagnosis(t *testing.T) {
	imp, _ := newTestImporter(t, false)

	result, err := imp.ImportDocument(context.Background(), testDocument(patientPage()))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Missing(), report.SectionCriteria)
}

func TestImporter_MissingPatientIDIsFatal(t *testing.T) {
	imp, _ := newTestImporter(t, false)

	doc := testDocument(pageFromRows(1, [][]string{
		{"Age: 34"},
		{"Executive Function 45 88 21 Yes"},
	}))
	_, err := imp.ImportDocument(context.Background(), doc)
	require.Error(t, err)

	var missingID *extract.MissingPatientIDError
	assert.ErrorAs(t, err, &missingID)
}

func TestImporter_SecondImportSkips(t *testing.T) {
	imp, _ := newTestImporter(t, false)
	ctx := context.Background()

	_, err := imp.ImportDocument(ctx, testDocument(patientPage()))
	require.NoError(t, err)

	result, err := imp.ImportDocument(ctx, testDocument(patientPage()))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Skipped)
	assert.Empty(t, result.Sections)
}

func TestImporter_ReparseFillsMissingSections(t *testing.T) {
	// First pass has no subtest pages; the re-parse sees them and fills only
	// the sections the store reports as empty.
	first, st := newTestImporter(t, false)
	ctx := context.Background()

	_, err := first.ImportDocument(ctx, testDocument(patientPage()))
	require.NoError(t, err)

	missing, err := st.MissingSections(ctx, "PT-5001")
	require.NoError(t, err)
	assert.Contains(t, missing, report.SectionSubtests)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.DefaultConfig()
	cfg.Reparse = true
	second := New(cfg, nil, st, logger)

	result, err := second.ImportDocument(ctx, testDocument(patientPage(), stroopPage()))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Skipped)

	assert.Equal(t, report.StateSkipped, statusFor(result.Sections, report.SectionPatient).State)
	assert.Equal(t, report.StateSkipped, statusFor(result.Sections, report.SectionDomainScores).State)
	assert.Equal(t, report.StateImported, statusFor(result.Sections, report.SectionSubtests).State)

	missing, err = st.MissingSections(ctx, "PT-5001")
	require.NoError(t, err)
	assert.NotContains(t, missing, report.SectionSubtests)
}

func TestImporter_ReparseRetriesAbsentSections(t *testing.T) {
	imp, st := newTestImporter(t, true)
	ctx := context.Background()

	doc := testDocument(patientPage(), stroopPage())
	_, err := imp.ImportDocument(ctx, doc)
	require.NoError(t, err)

	// Sections that genuinely are not in the report stay missing; the
	// re-parse retries them but already stored sections are not rewritten.
	result, err := imp.ImportDocument(ctx, doc)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, report.StateSkipped, statusFor(result.Sections, report.SectionSubtests).State)
	assert.Equal(t, report.StateMissing, statusFor(result.Sections, report.SectionScreener).State)

	missing, err := st.MissingSections(ctx, "PT-5001")
	require.NoError(t, err)
	assert.Contains(t, missing, report.SectionScreener)
	assert.NotContains(t, missing, report.SectionSubtests)
}
