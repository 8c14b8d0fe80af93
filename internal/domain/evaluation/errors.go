package evaluation

import (
	"errors"

	"github.com/painelsaude/painel/internal/domain/scoring"
)

var (
	ErrPatientNotFound    = errors.New("patient not found")
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrFutureDate         = errors.New("evaluation date cannot be in the future")
	ErrMissingDomain      = scoring.ErrMissingDomain
	ErrInstrumentMismatch = errors.New("scores belong to a different instrument")

	// Informed total or classification disagreeing with the recomputed values.
	ErrInconsistentTotal          = errors.New("informed total does not match the sum of domains")
	ErrInconsistentClassification = errors.New("informed classification does not match the total")
)
