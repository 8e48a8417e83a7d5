package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognimed/cogimport/internal/report"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := NewSQLiteStore(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleRecords(patientID string) *report.DocumentRecords {
	return &report.DocumentRecords{
		Patient: report.Patient{
			ID: patientID, TestDate: "2024-03-01", Age: 34,
			Language: "English", Diagnosis: "Combined Presentation",
		},
		Domains: []report.DomainScore{
			{PatientID: patientID, Domain: "Executive Function",
				Raw: report.NewScore(45), Standard: report.NewScore(88),
				Percentile: report.NewScore(21), Validity: report.ValidityValid},
			{PatientID: patientID, Domain: "Complex Attention",
				Standard: report.NewScore(42), Percentile: report.NewScore(8),
				Validity: report.ValidityInvalid},
		},
		Subtests: []report.SubtestMetric{
			{PatientID: patientID, Test: "Stroop Test", Metric: "Simple Reaction Time",
				Raw: report.NewScore(312), Standard: report.NewScore(96),
				Percentile: report.NewScore(39), Validity: report.ValidityValid},
		},
		Screener: []report.ScreenerResponse{
			{PatientID: patientID, Part: report.PartA, Question: 1, Response: report.ResponseOften},
		},
		NPQDomains: []report.NPQDomainScore{
			{PatientID: patientID, Domain: "Attention", Score: report.NewScore(14), Severity: "Moderate"},
		},
		NPQQuestions: []report.NPQQuestionResponse{
			{PatientID: patientID, Domain: "Attention", Question: 12,
				Text: "Trouble concentrating on tasks", Score: report.NewScore(2), Severity: "Moderate problem"},
		},
		Criteria: []report.DSMCriterion{
			{PatientID: patientID, CriterionID: "A1", Category: report.CategoryInattention, Met: true},
		},
	}
}

func TestSQLiteStore_SaveDocumentRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveDocument(ctx, sampleRecords("PT-1001")))

	has, err := st.HasPatient(ctx, "PT-1001")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = st.HasPatient(ctx, "PT-9999")
	require.NoError(t, err)
	assert.False(t, has)

	missing, err := st.MissingSections(ctx, "PT-1001")
	require.NoError(t, err)
	assert.Empty(t, missing)

	var domain, validity string
	var standard float64
	var raw *float64
	err = st.db.QueryRow(
		`SELECT domain, raw, standard, validity FROM domain_scores
		 WHERE patient_id = ? AND domain = ?`, "PT-1001", "Complex Attention").
		Scan(&domain, &raw, &standard, &validity)
	require.NoError(t, err)
	assert.Nil(t, raw) // absent raw stored as NULL
	assert.Equal(t, 42.0, standard)
	assert.Equal(t, "invalid", validity)

	var response string
	err = st.db.QueryRow(
		`SELECT response FROM screener_responses WHERE patient_id = ? AND part = ? AND question = ?`,
		"PT-1001", "A", 1).Scan(&response)
	require.NoError(t, err)
	assert.Equal(t, "Often", response)
}

func TestSQLiteStore_DuplicateDocument(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveDocument(ctx, sampleRecords("PT-1001")))

	err := st.SaveDocument(ctx, sampleRecords("PT-1001"))
	assert.ErrorIs(t, err, ErrAlreadyImported)

	// The duplicate must not have touched the child tables.
	var count int
	require.NoError(t, st.db.QueryRow(
		`SELECT COUNT(*) FROM subtest_metrics WHERE patient_id = ?`, "PT-1001").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLiteStore_MissingSections(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	records := sampleRecords("PT-2002")
	records.Screener = nil
	records.NPQDomains = nil
	records.NPQQuestions = nil
	records.Criteria = nil
	require.NoError(t, st.SaveDocument(ctx, records))

	missing, err := st.MissingSections(ctx, "PT-2002")
	require.NoError(t, err)
	assert.Equal(t, []report.Section{
		report.SectionScreener,
		report.SectionNPQDomains,
		report.SectionNPQQuestions,
		report.SectionCriteria,
	}, missing)

	missing, err = st.MissingSections(ctx, "PT-unknown")
	require.NoError(t, err)
	assert.Equal(t, report.AllSections, missing)
}

func TestSQLiteStore_SaveSectionsFillsOnlyRequested(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := sampleRecords("PT-3003")
	first.Screener = nil
	first.Criteria = nil
	require.NoError(t, st.SaveDocument(ctx, first))

	// A later parse found the screener; only that section is requested, so
	// the criteria rows it also carries must not be written.
	second := sampleRecords("PT-3003")
	require.NoError(t, st.SaveSections(ctx, second, []report.Section{report.SectionScreener}))

	missing, err := st.MissingSections(ctx, "PT-3003")
	require.NoError(t, err)
	assert.Equal(t, []report.Section{report.SectionCriteria}, missing)
}

func TestSQLiteStore_SaveSectionsIgnoresConflicts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	records := sampleRecords("PT-4004")
	require.NoError(t, st.SaveDocument(ctx, records))

	// Re-saving an already stored section is a no-op, not an error.
	require.NoError(t, st.SaveSections(ctx, records, []report.Section{report.SectionSubtests}))

	var count int
	require.NoError(t, st.db.QueryRow(
		`SELECT COUNT(*) FROM subtest_metrics WHERE patient_id = ?`, "PT-4004").Scan(&count))
	assert.Equal(t, 1, count)
}
