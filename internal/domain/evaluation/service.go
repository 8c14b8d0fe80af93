package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/painelsaude/painel/internal/domain/patient"
	"github.com/painelsaude/painel/internal/domain/scoring"
	"github.com/painelsaude/painel/internal/platform/metrics"
)

// Service owns the evaluation lifecycle: every write validates the scores,
// recomputes all derived fields and performs exactly one store write.
type Service struct {
	repo     Repository
	patients patient.Lookup
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, patients patient.Lookup, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		metrics:  m,
		logger:   logger.With().Str("component", "evaluation").Logger(),
		now:      time.Now,
	}
}

// SetClock replaces the time source used for the future-date check.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Evaluation, error) {
	if in.Scores == nil {
		return nil, fmt.Errorf("%w: no scores provided", ErrMissingDomain)
	}
	inst := in.Scores.Instrument()

	if _, err := s.patients.GetByID(ctx, in.PatientID); err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, in.PatientID)
		}
		return nil, fmt.Errorf("lookup patient: %w", err)
	}
	if err := s.checkDate(inst, in.EvaluationDate); err != nil {
		return nil, err
	}

	scores := in.Scores.Provided()
	res, err := scoring.Calculate(inst, scores)
	if err != nil {
		s.recordRejection(inst, err)
		return nil, err
	}
	if err := s.checkInformed(inst, res, in.InformedTotal, in.InformedClassification); err != nil {
		return nil, err
	}

	e := &Evaluation{
		PatientID:               in.PatientID,
		Instrument:              inst,
		EvaluationDate:          dateOnly(in.EvaluationDate),
		DomainScores:            scores,
		Comorbidities:           in.Comorbidities,
		Notes:                   in.Notes,
		ResponsibleProfessional: in.ResponsibleProfessional,
	}
	e.applyResult(res)

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create evaluation: %w", err)
	}

	s.metrics.IncEvaluation(string(inst), "create")
	s.metrics.IncClassification(string(inst), e.ClassificationLabel())
	s.logger.Info().
		Str("instrument", string(inst)).
		Str("evaluation_id", e.ID.String()).
		Str("patient_id", e.PatientID.String()).
		Str("classification", e.ClassificationLabel()).
		Msg("evaluation created")
	return e, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Evaluation, error) {
	return s.repo.GetByID(ctx, id)
}

// Update merges p into the stored evaluation. When any score changes the
// derived fields are recomputed from the merged scores as a whole.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p Patch) (*Evaluation, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.EvaluationDate != nil {
		if err := s.checkDate(e.Instrument, *p.EvaluationDate); err != nil {
			return nil, err
		}
		e.EvaluationDate = dateOnly(*p.EvaluationDate)
	}

	var changes scoring.DomainScoreSet
	if p.Scores != nil {
		if p.Scores.Instrument() != e.Instrument {
			return nil, fmt.Errorf("%w: evaluation is %s, got %s", ErrInstrumentMismatch, e.Instrument, p.Scores.Instrument())
		}
		changes = p.Scores.Provided()
	}

	if len(changes) > 0 || p.InformedTotal != nil || p.InformedClassification != nil {
		merged := e.DomainScores.Clone()
		for k, v := range changes {
			merged[k] = v
		}
		res, err := scoring.Calculate(e.Instrument, merged)
		if err != nil {
			s.recordRejection(e.Instrument, err)
			return nil, err
		}
		if err := s.checkInformed(e.Instrument, res, p.InformedTotal, p.InformedClassification); err != nil {
			return nil, err
		}
		e.DomainScores = merged
		e.applyResult(res)
	}

	if p.Comorbidities != nil {
		e.Comorbidities = p.Comorbidities
	}
	if p.Notes != nil {
		e.Notes = p.Notes
	}
	if p.ResponsibleProfessional != nil {
		e.ResponsibleProfessional = p.ResponsibleProfessional
	}

	if err := s.repo.Update(ctx, e); err != nil {
		if errors.Is(err, ErrEvaluationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update evaluation: %w", err)
	}

	s.metrics.IncEvaluation(string(e.Instrument), "update")
	if len(changes) > 0 {
		s.metrics.IncClassification(string(e.Instrument), e.ClassificationLabel())
	}
	s.logger.Info().
		Str("instrument", string(e.Instrument)).
		Str("evaluation_id", e.ID.String()).
		Bool("recalculated", len(changes) > 0).
		Str("classification", e.ClassificationLabel()).
		Msg("evaluation updated")
	return e, nil
}

// Delete removes the evaluation permanently.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete evaluation: %w", err)
	}
	if !ok {
		return ErrEvaluationNotFound
	}
	s.metrics.IncEvaluation(string(e.Instrument), "delete")
	s.logger.Info().
		Str("instrument", string(e.Instrument)).
		Str("evaluation_id", id.String()).
		Msg("evaluation deleted")
	return nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, inst scoring.Instrument, limit, offset int) ([]*Evaluation, int, error) {
	return s.repo.ListByPatient(ctx, patientID, inst, limit, offset)
}

// Latest returns the most recent evaluation of the patient for inst.
func (s *Service) Latest(ctx context.Context, patientID uuid.UUID, inst scoring.Instrument) (*Evaluation, error) {
	return s.repo.Latest(ctx, patientID, inst)
}

func (s *Service) Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Evaluation, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

func (s *Service) checkDate(inst scoring.Instrument, d time.Time) error {
	if d.IsZero() {
		return fmt.Errorf("%w: data_avaliacao", ErrMissingDomain)
	}
	if dateOnly(d).After(dateOnly(s.now())) {
		s.metrics.IncValidationFailure(string(inst), "future_date")
		return fmt.Errorf("%w: %s", ErrFutureDate, d.Format(time.DateOnly))
	}
	return nil
}

// checkInformed compares transcribed IVCF-20 values with the computed ones.
// Other instruments ignore informed values.
func (s *Service) checkInformed(inst scoring.Instrument, res scoring.Result, total *float64, class *string) error {
	if inst != scoring.InstrumentIVCF {
		return nil
	}
	if total != nil && *total != res.Total {
		s.metrics.IncValidationFailure(string(inst), "inconsistent_total")
		return fmt.Errorf("%w: informed %g, domains sum to %g", ErrInconsistentTotal, *total, res.Total)
	}
	if class != nil && *class != res.Classification {
		s.metrics.IncValidationFailure(string(inst), "inconsistent_classification")
		return fmt.Errorf("%w: informed %q, total %g is %q", ErrInconsistentClassification, *class, res.Total, res.Classification)
	}
	return nil
}

func (s *Service) recordRejection(inst scoring.Instrument, err error) {
	reason := "invalid"
	switch {
	case errors.Is(err, scoring.ErrDomainScoreOutOfRange):
		reason = "out_of_range"
	case errors.Is(err, scoring.ErrMissingDomain):
		reason = "missing_domain"
	}
	s.metrics.IncValidationFailure(string(inst), reason)
	s.logger.Debug().Err(err).Str("instrument", string(inst)).Msg("evaluation rejected")
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
