package evaluation

import (
	"time"

	"github.com/google/uuid"

	"github.com/painelsaude/painel/internal/domain/scoring"
)

// Evaluation is one stored assessment of a patient. The derived fields are
// owned by the service and always match DomainScores.
type Evaluation struct {
	ID             uuid.UUID              `db:"id" json:"id"`
	PatientID      uuid.UUID              `db:"patient_id" json:"patient_id"`
	Instrument     scoring.Instrument     `db:"instrument" json:"instrument"`
	EvaluationDate time.Time              `db:"evaluation_date" json:"data_avaliacao"`
	DomainScores   scoring.DomainScoreSet `db:"domain_scores" json:"domain_scores"`

	TotalScore      *float64 `db:"total_score" json:"pontuacao_total,omitempty"`
	FatigueSubscale *float64 `db:"fatigue_subscale" json:"subescala_fadiga,omitempty"`
	Classification  *string  `db:"classification" json:"classificacao,omitempty"`

	WeeklyLightMinutes    *int    `db:"weekly_light_minutes" json:"total_weekly_light_minutes,omitempty"`
	WeeklyModerateMinutes *int    `db:"weekly_moderate_minutes" json:"total_weekly_moderate_minutes,omitempty"`
	WeeklyVigorousMinutes *int    `db:"weekly_vigorous_minutes" json:"total_weekly_vigorous_minutes,omitempty"`
	WHOCompliance         *bool   `db:"who_compliance" json:"who_compliance,omitempty"`
	SedentaryRiskLevel    *string `db:"sedentary_risk_level" json:"sedentary_risk_level,omitempty"`

	Comorbidities           *string   `db:"comorbidities" json:"comorbidades,omitempty"`
	Notes                   *string   `db:"notes" json:"observacoes,omitempty"`
	ResponsibleProfessional *string   `db:"responsible_professional" json:"profissional_responsavel,omitempty"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time `db:"updated_at" json:"updated_at"`
}

// applyResult overwrites every derived field from a fresh calculation.
func (e *Evaluation) applyResult(r scoring.Result) {
	e.TotalScore, e.FatigueSubscale, e.Classification = nil, nil, nil
	e.WeeklyLightMinutes, e.WeeklyModerateMinutes, e.WeeklyVigorousMinutes = nil, nil, nil
	e.WHOCompliance, e.SedentaryRiskLevel = nil, nil

	if r.Activity != nil {
		a := *r.Activity
		e.WeeklyLightMinutes = &a.WeeklyLight
		e.WeeklyModerateMinutes = &a.WeeklyModerate
		e.WeeklyVigorousMinutes = &a.WeeklyVigorous
		e.WHOCompliance = &a.WHOCompliant
		e.SedentaryRiskLevel = &a.SedentaryRisk
		return
	}
	total := r.Total
	class := r.Classification
	e.TotalScore = &total
	e.Classification = &class
	if r.FatigueSubscale != nil {
		f := *r.FatigueSubscale
		e.FatigueSubscale = &f
	}
}

// ClassificationLabel returns the primary label of the evaluation: the
// frailty or fatigue class, or the sedentary risk for physical activity.
func (e *Evaluation) ClassificationLabel() string {
	switch {
	case e.Classification != nil:
		return *e.Classification
	case e.SedentaryRiskLevel != nil:
		return *e.SedentaryRiskLevel
	}
	return ""
}

// CreateInput carries a new submission. Scores selects the instrument.
type CreateInput struct {
	PatientID      uuid.UUID
	EvaluationDate time.Time
	Scores         ScorePatch

	// Informed values transcribed from a paper form. Only IVCF-20 accepts
	// them, and only when they agree with the recomputed result.
	InformedTotal          *float64
	InformedClassification *string

	Comorbidities           *string
	Notes                   *string
	ResponsibleProfessional *string
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	EvaluationDate *time.Time
	Scores         ScorePatch

	InformedTotal          *float64
	InformedClassification *string

	Comorbidities           *string
	Notes                   *string
	ResponsibleProfessional *string
}

// SearchParams filters Search. Zero values are ignored.
type SearchParams struct {
	Instrument     scoring.Instrument
	PatientID      *uuid.UUID
	From           *time.Time
	To             *time.Time
	Classification string
}
