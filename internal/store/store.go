package store

import (
	"context"
	"errors"

	"github.com/cognimed/cogimport/internal/report"
)

// ErrAlreadyImported signals that the document's patient id is already in
// the store. A repeat import is an idempotent skip, never an update.
var ErrAlreadyImported = errors.New("patient already imported")

// Store is the persistence collaborator. The engine produces rows; the
// store owns transactions, uniqueness and schema.
type Store interface {
	// SaveDocument writes every record of one document in a single
	// transaction. The patient insert is insert-if-absent: if the patient
	// already exists, nothing is written and ErrAlreadyImported is
	// returned, which also makes concurrent imports of the same patient
	// race-free.
	SaveDocument(ctx context.Context, records *report.DocumentRecords) error

	// HasPatient reports whether the patient id has been imported.
	HasPatient(ctx context.Context, patientID string) (bool, error)

	// MissingSections returns the sections with no rows for the patient,
	// for the companion re-parse flow.
	MissingSections(ctx context.Context, patientID string) ([]report.Section, error)

	// SaveSections inserts only the named sections' rows for an existing
	// patient, in one transaction. Insert-only: rows already present are
	// left untouched.
	SaveSections(ctx context.Context, records *report.DocumentRecords, sections []report.Section) error

	Close() error
}
