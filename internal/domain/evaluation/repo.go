package evaluation

import (
	"context"

	"github.com/google/uuid"

	"github.com/painelsaude/painel/internal/domain/scoring"
)

// Repository persists evaluations. GetByID and Latest return
// ErrEvaluationNotFound on a miss; Delete reports whether a row was removed.
type Repository interface {
	Create(ctx context.Context, e *Evaluation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Evaluation, error)
	Update(ctx context.Context, e *Evaluation) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, inst scoring.Instrument, limit, offset int) ([]*Evaluation, int, error)
	Latest(ctx context.Context, patientID uuid.UUID, inst scoring.Instrument) (*Evaluation, error)
	Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Evaluation, int, error)
}
