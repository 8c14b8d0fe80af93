package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/painelsaude/painel/internal/domain/scoring"
)

var today = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ivcfRow(pid uuid.UUID, date time.Time, total float64) Row {
	return Row{
		EvaluationID:   uuid.New(),
		PatientID:      pid,
		PatientName:    "Paciente " + pid.String()[:4],
		Age:            72,
		EvaluationDate: date,
		Total:          total,
		Classification: scoring.ClassifyIVCF(int(total)),
	}
}

func factfRow(pid uuid.UUID, date time.Time, total, fatigue float64) Row {
	return Row{
		EvaluationID:   uuid.New(),
		PatientID:      pid,
		Age:            65,
		EvaluationDate: date,
		Total:          total,
		Fatigue:        fatigue,
		Classification: scoring.ClassifyFatigue(fatigue),
		Scores:         scoring.DomainScoreSet{scoring.DomainSubescalaFadiga: fatigue},
	}
}

func activityRow(pid uuid.UUID, date time.Time, age int, sedentary float64, compliant bool) Row {
	return Row{
		EvaluationID:   uuid.New(),
		PatientID:      pid,
		Age:            age,
		EvaluationDate: date,
		Classification: scoring.SedentaryRisk(sedentary),
		WHOCompliant:   compliant,
		Scores:         scoring.DomainScoreSet{scoring.FieldSedentaryHours: sedentary},
	}
}

type storeCall struct {
	inst   scoring.Instrument
	filter Filter
}

// recordingStore serves fixed rows through match and records every filter
// it receives.
type recordingStore struct {
	rows     map[scoring.Instrument][]Row
	patients []PatientRef
	calls    []storeCall
	err      error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{rows: map[scoring.Instrument][]Row{}}
}

func (s *recordingStore) add(inst scoring.Instrument, rows ...Row) {
	s.rows[inst] = append(s.rows[inst], rows...)
}

func (s *recordingStore) Rows(_ context.Context, inst scoring.Instrument, f Filter) ([]Row, error) {
	s.calls = append(s.calls, storeCall{inst: inst, filter: f})
	if s.err != nil {
		return nil, s.err
	}
	var out []Row
	for _, r := range s.rows[inst] {
		if match(f, r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *recordingStore) Patients(_ context.Context, f Filter) ([]PatientRef, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []PatientRef
	for _, p := range s.patients {
		if inScope(f, p.Region, p.HealthUnitID, p.Age) {
			out = append(out, p)
		}
	}
	return out, nil
}

// match is the in-memory counterpart of buildFilterClause.
func match(f Filter, r Row) bool {
	d := r.EvaluationDate
	switch {
	case f.From != nil && d.Before(*f.From):
		return false
	case f.To != nil && d.After(*f.To):
		return false
	case f.Classification != "" && r.Classification != f.Classification:
		return false
	}
	return inScope(f, r.Region, r.HealthUnitID, r.Age)
}

// inScope is the in-memory counterpart of the patient predicates shared by
// buildFilterClause and buildPatientClause.
func inScope(f Filter, region string, unit *uuid.UUID, age int) bool {
	switch {
	case f.Region != "" && region != f.Region:
		return false
	case f.HealthUnitID != nil && (unit == nil || *unit != *f.HealthUnitID):
		return false
	case f.AgeRange != "" && !f.AgeRange.Contains(age):
		return false
	}
	return true
}
