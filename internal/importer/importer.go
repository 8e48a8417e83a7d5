package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cognimed/cogimport/internal/config"
	"github.com/cognimed/cogimport/internal/extract"
	"github.com/cognimed/cogimport/internal/pdfdoc"
	"github.com/cognimed/cogimport/internal/report"
	"github.com/cognimed/cogimport/internal/store"
)

// Importer runs the per-document pipeline: read the PDF once, run every
// extractor over it, and hand the combined record set to the store in one
// transaction.
type Importer struct {
	reader     *pdfdoc.Reader
	fields     *extract.FieldExtractor
	subtests   *extract.SubtestExtractor
	reconciler *extract.Reconciler
	screener   *extract.ScreenerExtractor
	npq        *extract.NPQExtractor
	store      store.Store
	logger     *slog.Logger
	reparse    bool
}

// New wires an importer from configuration. cal may be nil, in which case
// the screener section is reported as skipped rather than missing.
func New(cfg *config.Config, cal *extract.Calibration, st store.Store, logger *slog.Logger) *Importer {
	th := cfg.Thresholds
	return &Importer{
		reader:     pdfdoc.NewReader(cfg.MaxFileSize),
		fields:     extract.NewFieldExtractor(th),
		subtests:   extract.NewSubtestExtractor(th),
		reconciler: extract.NewReconciler(th),
		screener:   extract.NewScreenerExtractor(cal),
		npq:        extract.NewNPQExtractor(th),
		store:      st,
		logger:     logger,
		reparse:    cfg.Reparse,
	}
}

// ImportFile imports one report PDF. Fatal conditions (unreadable PDF,
// missing patient id) return an error and write nothing; everything else
// degrades into the per-section status list on the result.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*report.ImportResult, error) {
	doc, err := imp.reader.Open(path)
	if err != nil {
		return nil, err
	}
	return imp.ImportDocument(ctx, doc)
}

// ImportDocument runs the pipeline over an already-parsed document.
func (imp *Importer) ImportDocument(ctx context.Context, doc *pdfdoc.Document) (*report.ImportResult, error) {
	result := &report.ImportResult{
		JobID: uuid.NewString(),
		Path:  doc.Path,
	}

	records, err := imp.extractAll(ctx, doc)
	if err != nil {
		return nil, err
	}
	result.PatientID = records.Patient.ID

	exists, err := imp.store.HasPatient(ctx, records.Patient.ID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if exists {
		if imp.reparse {
			return imp.fillMissing(ctx, records, result)
		}
		imp.logger.Info("patient already imported, skipping",
			"patient_id", records.Patient.ID, "path", doc.Path)
		result.Success = true
		result.Skipped = true
		return result, nil
	}

	if err := imp.store.SaveDocument(ctx, records); err != nil {
		if errors.Is(err, store.ErrAlreadyImported) {
			// Lost a race against a concurrent import of the same patient;
			// same outcome as the explicit skip above.
			result.Success = true
			result.Skipped = true
			return result, nil
		}
		return nil, fmt.Errorf("save document: %w", err)
	}

	result.Success = true
	result.Sections = sectionStatuses(records, nil)
	imp.logger.Info("document imported", "patient_id", records.Patient.ID, "path", doc.Path)
	return result, nil
}

// extractAll runs every extractor and assembles the document's record set.
// Only the field extractor can fail; all other sections degrade to empty.
func (imp *Importer) extractAll(ctx context.Context, doc *pdfdoc.Document) (*report.DocumentRecords, error) {
	patient, domains, err := imp.fields.Extract(doc)
	if err != nil {
		return nil, err
	}
	records := &report.DocumentRecords{Patient: patient, Domains: domains}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	candidates := imp.subtests.Extract(doc)
	records.Subtests = imp.reconciler.Reconcile(patient.ID, candidates)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records.Screener = imp.screener.Extract(doc, patient.ID)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records.NPQDomains, records.NPQQuestions = imp.npq.Extract(doc, patient.ID)

	var diagnosis extract.Presentation
	records.Criteria, diagnosis = extract.MapCriteria(patient.ID, records.Screener)
	records.Patient.Diagnosis = string(diagnosis)

	return records, nil
}

// fillMissing is the companion re-parse flow: extract everything again but
// insert only the sections the store reports as empty.
func (imp *Importer) fillMissing(ctx context.Context, records *report.DocumentRecords, result *report.ImportResult) (*report.ImportResult, error) {
	missing, err := imp.store.MissingSections(ctx, records.Patient.ID)
	if err != nil {
		return nil, fmt.Errorf("missing sections: %w", err)
	}

	// The patient row exists; only record sections can be refilled.
	var fillable []report.Section
	for _, s := range missing {
		if s != report.SectionPatient {
			fillable = append(fillable, s)
		}
	}
	if len(fillable) == 0 {
		result.Success = true
		result.Skipped = true
		return result, nil
	}

	if err := imp.store.SaveSections(ctx, records, fillable); err != nil {
		return nil, fmt.Errorf("save sections: %w", err)
	}

	wanted := make(map[report.Section]bool, len(fillable))
	for _, s := range fillable {
		wanted[s] = true
	}
	result.Success = true
	result.Sections = sectionStatuses(records, wanted)
	imp.logger.Info("missing sections refilled",
		"patient_id", records.Patient.ID, "sections", len(fillable))
	return result, nil
}

// sectionStatuses builds the per-section status list. A nil filter covers
// all sections; otherwise sections outside the filter report as skipped.
func sectionStatuses(records *report.DocumentRecords, filter map[report.Section]bool) []report.SectionStatus {
	counts := map[report.Section]int{
		report.SectionPatient:      1,
		report.SectionDomainScores: len(records.Domains),
		report.SectionSubtests:     len(records.Subtests),
		report.SectionScreener:     len(records.Screener),
		report.SectionNPQDomains:   len(records.NPQDomains),
		report.SectionNPQQuestions: len(records.NPQQuestions),
		report.SectionCriteria:     len(records.Criteria),
	}

	statuses := make([]report.SectionStatus, 0, len(report.AllSections))
	for _, section := range report.AllSections {
		status := report.SectionStatus{Section: section, Rows: counts[section]}
		switch {
		case filter != nil && !filter[section]:
			status.State = report.StateSkipped
			status.Rows = 0
		case counts[section] == 0:
			status.State = report.StateMissing
		default:
			status.State = report.StateImported
		}
		statuses = append(statuses, status)
	}
	return statuses
}
