package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/painelsaude/painel/internal/domain/scoring"
)

// Row is one evaluation joined with the patient and health unit context the
// dashboards group and filter on. Derived columns absent for an instrument
// are zero.
type Row struct {
	EvaluationID   uuid.UUID
	PatientID      uuid.UUID
	PatientName    string
	Age            int
	Neighborhood   string
	HealthUnitID   *uuid.UUID
	HealthUnit     string
	Region         string
	UnitBairro     string
	EvaluationDate time.Time
	Scores         scoring.DomainScoreSet

	Total          float64
	Fatigue        float64
	Classification string // frailty, fatigue or sedentary risk label

	WeeklyLight    int
	WeeklyModerate int
	WeeklyVigorous int
	WHOCompliant   bool
	Comorbidities  string
}

// SedentaryHours reads the raw daily sedentary hours of a physical activity row.
func (r Row) SedentaryHours() float64 {
	return r.Scores[scoring.FieldSedentaryHours]
}

// PatientRef is an active patient in the scope of a filter, evaluated or not.
type PatientRef struct {
	ID           uuid.UUID
	Name         string
	Age          int
	Neighborhood string
	HealthUnitID *uuid.UUID
	HealthUnit   string
	Region       string
	RegisteredAt time.Time
}

// Store fetches the rows of active patients matching a filter, ordered by
// evaluation date ascending. Patients applies only the region, health unit
// and age range of f.
type Store interface {
	Rows(ctx context.Context, inst scoring.Instrument, f Filter) ([]Row, error)
	Patients(ctx context.Context, f Filter) ([]PatientRef, error)
}
