package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/cognimed/cogimport/internal/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS patients (
	id         TEXT PRIMARY KEY,
	test_date  TEXT NOT NULL DEFAULT '',
	age        INTEGER NOT NULL DEFAULT 0,
	language   TEXT NOT NULL DEFAULT '',
	diagnosis  TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS domain_scores (
	patient_id TEXT NOT NULL REFERENCES patients(id),
	domain     TEXT NOT NULL,
	raw        REAL,
	standard   REAL,
	percentile REAL,
	validity   TEXT NOT NULL,
	PRIMARY KEY (patient_id, domain)
);
CREATE TABLE IF NOT EXISTS subtest_metrics (
	patient_id TEXT NOT NULL REFERENCES patients(id),
	test       TEXT NOT NULL,
	metric     TEXT NOT NULL,
	raw        REAL,
	standard   REAL,
	percentile REAL,
	validity   TEXT NOT NULL,
	PRIMARY KEY (patient_id, test, metric)
);
CREATE TABLE IF NOT EXISTS screener_responses (
	patient_id TEXT NOT NULL REFERENCES patients(id),
	part       TEXT NOT NULL,
	question   INTEGER NOT NULL,
	response   TEXT NOT NULL,
	PRIMARY KEY (patient_id, part, question)
);
CREATE TABLE IF NOT EXISTS npq_domain_scores (
	patient_id TEXT NOT NULL REFERENCES patients(id),
	domain     TEXT NOT NULL,
	score      REAL,
	severity   TEXT NOT NULL,
	PRIMARY KEY (patient_id, domain)
);
CREATE TABLE IF NOT EXISTS npq_question_responses (
	patient_id TEXT NOT NULL REFERENCES patients(id),
	domain     TEXT NOT NULL,
	question   INTEGER NOT NULL,
	text       TEXT NOT NULL,
	score      REAL,
	severity   TEXT NOT NULL,
	PRIMARY KEY (patient_id, domain, question)
);
CREATE TABLE IF NOT EXISTS dsm_criteria (
	patient_id   TEXT NOT NULL REFERENCES patients(id),
	criterion_id TEXT NOT NULL,
	category     TEXT NOT NULL,
	met          INTEGER NOT NULL,
	PRIMARY KEY (patient_id, criterion_id)
);
`

// sectionTables maps each status-list section to its table.
var sectionTables = map[report.Section]string{
	report.SectionPatient:      "patients",
	report.SectionDomainScores: "domain_scores",
	report.SectionSubtests:     "subtest_metrics",
	report.SectionScreener:     "screener_responses",
	report.SectionNPQDomains:   "npq_domain_scores",
	report.SectionNPQQuestions: "npq_question_responses",
	report.SectionCriteria:     "dsm_criteria",
}

// SQLiteStore implements Store on an embedded SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (and if needed initializes) the database at path.
// Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer: document transactions serialize on the connection rather
	// than returning SQLITE_BUSY to concurrent workers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// SaveDocument implements Store.
func (s *SQLiteStore) SaveDocument(ctx context.Context, records *report.DocumentRecords) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO patients (id, test_date, age, language, diagnosis)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		records.Patient.ID, records.Patient.TestDate, records.Patient.Age,
		records.Patient.Language, records.Patient.Diagnosis)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("insert patient: %w", err)
	} else if n == 0 {
		return ErrAlreadyImported
	}

	if err := s.insertRecords(ctx, tx, records, nil); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("document saved",
		"patient_id", records.Patient.ID,
		"domains", len(records.Domains),
		"subtests", len(records.Subtests))
	return nil
}

// HasPatient implements Store.
func (s *SQLiteStore) HasPatient(ctx context.Context, patientID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM patients WHERE id = ?`, patientID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query patient: %w", err)
	}
	return true, nil
}

// MissingSections implements Store.
func (s *SQLiteStore) MissingSections(ctx context.Context, patientID string) ([]report.Section, error) {
	var missing []report.Section
	for _, section := range report.AllSections {
		table := sectionTables[section]
		var idColumn string
		if section == report.SectionPatient {
			idColumn = "id"
		} else {
			idColumn = "patient_id"
		}
		var count int
		q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ?`, table, idColumn)
		if err := s.db.QueryRowContext(ctx, q, patientID).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		if count == 0 {
			missing = append(missing, section)
		}
	}
	return missing, nil
}

// SaveSections implements Store.
func (s *SQLiteStore) SaveSections(ctx context.Context, records *report.DocumentRecords, sections []report.Section) error {
	wanted := make(map[report.Section]bool, len(sections))
	for _, sec := range sections {
		wanted[sec] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.insertRecords(ctx, tx, records, wanted); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("sections saved", "patient_id", records.Patient.ID, "sections", len(sections))
	return nil
}

// insertRecords writes the non-patient record groups. A nil filter writes
// everything; otherwise only the named sections.
func (s *SQLiteStore) insertRecords(ctx context.Context, tx *sql.Tx, records *report.DocumentRecords, filter map[report.Section]bool) error {
	include := func(sec report.Section) bool { return filter == nil || filter[sec] }

	if include(report.SectionDomainScores) {
		for _, d := range records.Domains {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO domain_scores (patient_id, domain, raw, standard, percentile, validity)
				 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
				d.PatientID, d.Domain, nullScore(d.Raw), nullScore(d.Standard), nullScore(d.Percentile), string(d.Validity))
			if err != nil {
				return fmt.Errorf("insert domain score: %w", err)
			}
		}
	}

	if include(report.SectionSubtests) {
		for _, m := range records.Subtests {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO subtest_metrics (patient_id, test, metric, raw, standard, percentile, validity)
				 VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
				m.PatientID, m.Test, m.Metric, nullScore(m.Raw), nullScore(m.Standard), nullScore(m.Percentile), string(m.Validity))
			if err != nil {
				return fmt.Errorf("insert subtest metric: %w", err)
			}
		}
	}

	if include(report.SectionScreener) {
		for _, r := range records.Screener {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO screener_responses (patient_id, part, question, response)
				 VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
				r.PatientID, string(r.Part), r.Question, r.Response.String())
			if err != nil {
				return fmt.Errorf("insert screener response: %w", err)
			}
		}
	}

	if include(report.SectionNPQDomains) {
		for _, d := range records.NPQDomains {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO npq_domain_scores (patient_id, domain, score, severity)
				 VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
				d.PatientID, d.Domain, nullScore(d.Score), d.Severity)
			if err != nil {
				return fmt.Errorf("insert npq domain score: %w", err)
			}
		}
	}

	if include(report.SectionNPQQuestions) {
		for _, q := range records.NPQQuestions {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO npq_question_responses (patient_id, domain, question, text, score, severity)
				 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
				q.PatientID, q.Domain, q.Question, q.Text, nullScore(q.Score), q.Severity)
			if err != nil {
				return fmt.Errorf("insert npq question response: %w", err)
			}
		}
	}

	if include(report.SectionCriteria) {
		for _, c := range records.Criteria {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO dsm_criteria (patient_id, criterion_id, category, met)
				 VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
				c.PatientID, c.CriterionID, string(c.Category), c.Met)
			if err != nil {
				return fmt.Errorf("insert dsm criterion: %w", err)
			}
		}
	}

	return nil
}

// nullScore maps an absent score to SQL NULL.
func nullScore(s report.Score) any {
	if !s.OK {
		return nil
	}
	return s.Value
}
