package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no patient or unit has the requested id.
var ErrNotFound = errors.New("patient not found")

// Lookup resolves a patient by id. Inactive patients are still returned;
// callers decide whether Ativo matters.
type Lookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
}

type Repository interface {
	Lookup
	ListHealthUnits(ctx context.Context, activeOnly bool) ([]*HealthUnit, error)
	ListRegions(ctx context.Context) ([]string, error)
}
