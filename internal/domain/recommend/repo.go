package recommend

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinic/rxengine/internal/domain/medicine"
	"github.com/clinic/rxengine/internal/domain/patient"
)

// CatalogReader returns the active medicine catalog.
type CatalogReader interface {
	ListActive(ctx context.Context) ([]*medicine.Medicine, error)
}

// PatientReader returns a patient's history snapshot, or patient.ErrNotFound.
type PatientReader interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*patient.Profile, error)
}

// DataAccessError wraps a failed catalog or history read.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }
