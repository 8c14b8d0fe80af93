package dashboard

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/painelsaude/painel/internal/domain/scoring"
)

// ErrNotEvaluated is returned when a patient has no evaluation in scope.
var ErrNotEvaluated = errors.New("patient has no evaluation in scope")

// PatientOverview is one active patient with the latest evaluation in
// scope. The evaluation fields are nil for patients never evaluated.
type PatientOverview struct {
	PatientID          uuid.UUID  `json:"patient_id"`
	Name               string     `json:"nome_completo"`
	Age                int        `json:"idade"`
	Neighborhood       string     `json:"bairro,omitempty"`
	HealthUnit         string     `json:"unidade_saude,omitempty"`
	Region             string     `json:"regiao,omitempty"`
	RegisteredAt       time.Time  `json:"data_cadastro"`
	HasEvaluation      bool       `json:"has_evaluation"`
	LastEvaluationDate *time.Time `json:"data_ultima_avaliacao"`
	Classification     *string    `json:"classificacao"`
	TotalScore         *float64   `json:"pontuacao_total,omitempty"`
	FatigueSubscale    *float64   `json:"subescala_fadiga,omitempty"`
	SedentaryHours     *float64   `json:"sedentary_hours_per_day,omitempty"`
	WHOCompliant       *bool      `json:"who_compliance,omitempty"`
	WeeklyModerate     *int       `json:"total_weekly_moderate_minutes,omitempty"`
	WeeklyVigorous     *int       `json:"total_weekly_vigorous_minutes,omitempty"`
	Comorbidities      string     `json:"comorbidades,omitempty"`
}

// AllPatients pairs every patient with their latest row. Evaluated patients
// come first, most recent evaluation first; the rest follow by registration
// date, newest first.
func AllPatients(inst scoring.Instrument, patients []PatientRef, rows []Row) []PatientOverview {
	latest := make(map[uuid.UUID]Row, len(rows))
	for _, r := range LatestPerPatient(rows) {
		latest[r.PatientID] = r
	}

	out := make([]PatientOverview, 0, len(patients))
	for _, p := range patients {
		o := PatientOverview{
			PatientID:    p.ID,
			Name:         p.Name,
			Age:          p.Age,
			Neighborhood: p.Neighborhood,
			HealthUnit:   p.HealthUnit,
			Region:       p.Region,
			RegisteredAt: p.RegisteredAt,
		}
		if r, ok := latest[p.ID]; ok {
			o.withEvaluation(inst, r)
		}
		out = append(out, o)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.HasEvaluation != b.HasEvaluation {
			return a.HasEvaluation
		}
		if a.HasEvaluation && !a.LastEvaluationDate.Equal(*b.LastEvaluationDate) {
			return a.LastEvaluationDate.After(*b.LastEvaluationDate)
		}
		return a.RegisteredAt.After(b.RegisteredAt)
	})
	return out
}

func (o *PatientOverview) withEvaluation(inst scoring.Instrument, r Row) {
	date, class := r.EvaluationDate, r.Classification
	o.HasEvaluation = true
	o.LastEvaluationDate = &date
	o.Classification = &class
	o.Comorbidities = r.Comorbidities

	switch inst {
	case scoring.InstrumentActivity:
		hours, compliant := r.SedentaryHours(), r.WHOCompliant
		moderate, vigorous := r.WeeklyModerate, r.WeeklyVigorous
		o.SedentaryHours = &hours
		o.WHOCompliant = &compliant
		o.WeeklyModerate = &moderate
		o.WeeklyVigorous = &vigorous
	case scoring.InstrumentFACTF:
		total, fatigue := r.Total, r.Fatigue
		o.TotalScore = &total
		o.FatigueSubscale = &fatigue
	default:
		total := r.Total
		o.TotalScore = &total
	}
}

type PatientDomainScore struct {
	Domain          string  `json:"domain"`
	Key             string  `json:"key"`
	PatientScore    float64 `json:"patient_score"`
	RegionalAverage float64 `json:"regional_average"`
	MaxScore        float64 `json:"max_score"`
}

// PatientDomains compares one patient's latest domain scores with the
// latest evaluations of every patient in the same region.
type PatientDomains struct {
	PatientID      uuid.UUID            `json:"patient_id"`
	Region         string               `json:"regiao,omitempty"`
	EvaluationDate time.Time            `json:"data_avaliacao"`
	PeerCount      int                  `json:"regional_patient_count"`
	Domains        []PatientDomainScore `json:"domains"`
}

// ComparePatientDomains returns ErrNotEvaluated when rows hold nothing for
// patientID. A patient without a region is compared with everyone.
func ComparePatientDomains(rows []Row, patientID uuid.UUID, d scoring.Descriptor) (PatientDomains, error) {
	latest := LatestPerPatient(rows)

	var self *Row
	for i := range latest {
		if latest[i].PatientID == patientID {
			self = &latest[i]
			break
		}
	}
	if self == nil {
		return PatientDomains{}, ErrNotEvaluated
	}

	var peers []Row
	for _, r := range latest {
		if self.Region == "" || r.Region == self.Region {
			peers = append(peers, r)
		}
	}

	out := PatientDomains{
		PatientID:      patientID,
		Region:         self.Region,
		EvaluationDate: self.EvaluationDate,
		PeerCount:      len(peers),
		Domains:        make([]PatientDomainScore, 0, len(d.Domains)),
	}
	for _, dom := range d.Domains {
		var sum float64
		var n int
		for _, r := range peers {
			if v, ok := r.Scores[dom.Key]; ok {
				sum += v
				n++
			}
		}
		out.Domains = append(out.Domains, PatientDomainScore{
			Domain:          dom.Label,
			Key:             dom.Key,
			PatientScore:    self.Scores[dom.Key],
			RegionalAverage: average(sum, n),
			MaxScore:        dom.Max,
		})
	}
	return out, nil
}
