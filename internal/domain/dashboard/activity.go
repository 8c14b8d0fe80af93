package dashboard

import (
	"strings"

	"github.com/google/uuid"

	"github.com/painelsaude/painel/internal/domain/scoring"
)

type ActivitySummary struct {
	PatientsEvaluated       int     `json:"total_patients_evaluated"`
	TotalEvaluations        int     `json:"total_evaluations"`
	CompliantEvaluations    int     `json:"compliant_patients"`
	WHOCompliancePercentage float64 `json:"who_compliance_percentage"`
	AverageSedentaryHours   float64 `json:"average_sedentary_hours"`
}

func SummarizeActivity(rows []Row) ActivitySummary {
	s := ActivitySummary{PatientsEvaluated: distinctPatients(rows), TotalEvaluations: len(rows)}
	var sedentary float64
	for _, r := range rows {
		if r.WHOCompliant {
			s.CompliantEvaluations++
		}
		sedentary += r.SedentaryHours()
	}
	s.WHOCompliancePercentage = percent(s.CompliantEvaluations, len(rows))
	s.AverageSedentaryHours = average(sedentary, len(rows))
	return s
}

type IntensityAverage struct {
	Label                string  `json:"label"`
	AverageWeeklyMinutes float64 `json:"average_weekly_minutes"`
}

type ActivityDistribution struct {
	Light    IntensityAverage `json:"light_activity"`
	Moderate IntensityAverage `json:"moderate_activity"`
	Vigorous IntensityAverage `json:"vigorous_activity"`
}

// DistributeActivity averages the weekly minutes of each intensity.
func DistributeActivity(rows []Row) ActivityDistribution {
	var light, moderate, vigorous float64
	for _, r := range rows {
		light += float64(r.WeeklyLight)
		moderate += float64(r.WeeklyModerate)
		vigorous += float64(r.WeeklyVigorous)
	}
	n := len(rows)
	return ActivityDistribution{
		Light:    IntensityAverage{Label: "Leve", AverageWeeklyMinutes: average(light, n)},
		Moderate: IntensityAverage{Label: "Moderada", AverageWeeklyMinutes: average(moderate, n)},
		Vigorous: IntensityAverage{Label: "Vigorosa", AverageWeeklyMinutes: average(vigorous, n)},
	}
}

type ComplianceShare struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type WHOBreakdown struct {
	Compliant        ComplianceShare `json:"compliant"`
	NonCompliant     ComplianceShare `json:"non_compliant"`
	TotalEvaluations int             `json:"total_evaluations"`
}

func BreakdownWHO(rows []Row) WHOBreakdown {
	var yes int
	for _, r := range rows {
		if r.WHOCompliant {
			yes++
		}
	}
	n := len(rows)
	return WHOBreakdown{
		Compliant:        ComplianceShare{Label: "Conforme OMS", Count: yes, Percentage: percent(yes, n)},
		NonCompliant:     ComplianceShare{Label: "Não Conforme OMS", Count: n - yes, Percentage: percent(n-yes, n)},
		TotalEvaluations: n,
	}
}

type AgeSedentary struct {
	AgeRange              AgeRange `json:"age_range"`
	AverageSedentaryHours float64  `json:"average_sedentary_hours"`
	PatientCount          int      `json:"patient_count"`
}

// SedentaryByAge averages sedentary hours per age bucket over each
// patient's latest evaluation. Every bucket is reported.
func SedentaryByAge(rows []Row) []AgeSedentary {
	latest := LatestPerPatient(rows)
	out := make([]AgeSedentary, 0, len(AgeRanges()))
	for _, a := range AgeRanges() {
		var sum float64
		var n int
		for _, r := range latest {
			if a.Contains(r.Age) {
				sum += r.SedentaryHours()
				n++
			}
		}
		out = append(out, AgeSedentary{AgeRange: a, AverageSedentaryHours: average(sum, n), PatientCount: n})
	}
	return out
}

// CriticalSedentary lists patients whose latest evaluation is in the
// highest sedentary risk band, most sedentary first.
func CriticalSedentary(rows []Row) []CriticalPatient {
	selected := criticalRows(rows,
		func(r Row) bool { return r.Classification == scoring.SedentaryCritical },
		Row.SedentaryHours, true)
	out := make([]CriticalPatient, len(selected))
	for i, r := range selected {
		out[i] = newCriticalPatient(r, r.SedentaryHours())
		compliant := r.WHOCompliant
		out[i].WHOCompliant = &compliant
	}
	return out
}

// Condition is a chronic condition recognised in the free-text comorbidity
// notes of an evaluation.
type Condition struct {
	Key   string
	Label string
	Terms []string
}

// Matches reports whether notes mention any of the condition's terms.
func (c Condition) Matches(notes string) bool {
	notes = strings.ToLower(notes)
	for _, t := range c.Terms {
		if strings.Contains(notes, t) {
			return true
		}
	}
	return false
}

var (
	ConditionDiabetes     = Condition{Key: "diabetics", Label: "Diabetes", Terms: []string{"diabetes", "diabético", "diabética"}}
	ConditionHypertension = Condition{Key: "hypertensives", Label: "Hipertensão", Terms: []string{"hipertensão", "hipertenso", "hipertensa", "pressão alta"}}
)

// TrendConditions are the groups reported by the sedentary trend.
func TrendConditions() []Condition {
	return []Condition{ConditionDiabetes, ConditionHypertension}
}

type TrendPoint struct {
	Key                   string  `json:"key"`
	Month                 string  `json:"month"`
	Year                  int     `json:"year"`
	AverageSedentaryHours float64 `json:"average_sedentary_hours"`
	Evaluations           int     `json:"evaluations"`
}

type ConditionTrend struct {
	Condition    string       `json:"condition"`
	Label        string       `json:"label"`
	PatientCount int          `json:"patient_count"`
	Months       []TrendPoint `json:"months"`
}

// SedentaryTrend averages sedentary hours per month for the patients of
// each condition. A patient belongs to a condition when any of their rows
// mentions it, and then every row of theirs counts.
func SedentaryTrend(rows []Row, conditions []Condition) []ConditionTrend {
	out := make([]ConditionTrend, 0, len(conditions))
	for _, c := range conditions {
		members := map[uuid.UUID]struct{}{}
		for _, r := range rows {
			if c.Matches(r.Comorbidities) {
				members[r.PatientID] = struct{}{}
			}
		}
		var selected []Row
		for _, r := range rows {
			if _, ok := members[r.PatientID]; ok {
				selected = append(selected, r)
			}
		}

		t := ConditionTrend{Condition: c.Key, Label: c.Label, PatientCount: len(members), Months: []TrendPoint{}}
		for _, b := range MonthlyEvolution(selected, nil, Row.SedentaryHours) {
			t.Months = append(t.Months, TrendPoint{
				Key:                   b.Key,
				Month:                 b.Month,
				Year:                  b.Year,
				AverageSedentaryHours: b.AverageScore,
				Evaluations:           b.Total,
			})
		}
		out = append(out, t)
	}
	return out
}
