package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/painelsaude/painel/internal/domain/scoring"
)

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

func average(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return round1(sum / float64(n))
}

// Summary counts evaluations per label. Every label is present, with zero
// when unused.
type Summary struct {
	TotalEvaluations int                `json:"total_evaluations"`
	Counts           map[string]int     `json:"counts"`
	Percentages      map[string]float64 `json:"percentages"`
	AverageScore     float64            `json:"average_score"`
	CriticalPatients int                `json:"critical_patients"`
}

// Summarize reduces rows into label counts and the average total. critical
// selects the rows counted as critical; nil counts none.
func Summarize(rows []Row, labels []string, critical func(Row) bool) Summary {
	s := Summary{
		TotalEvaluations: len(rows),
		Counts:           make(map[string]int, len(labels)),
		Percentages:      make(map[string]float64, len(labels)),
	}
	for _, l := range labels {
		s.Counts[l] = 0
	}
	var sum float64
	for _, r := range rows {
		if _, ok := s.Counts[r.Classification]; ok {
			s.Counts[r.Classification]++
		}
		sum += r.Total
		if critical != nil && critical(r) {
			s.CriticalPatients++
		}
	}
	for _, l := range labels {
		s.Percentages[l] = percent(s.Counts[l], len(rows))
	}
	s.AverageScore = average(sum, len(rows))
	return s
}

type DomainStat struct {
	Domain     string  `json:"domain"`
	Key        string  `json:"key"`
	Average    float64 `json:"average_score"`
	Min        float64 `json:"min_score"`
	Max        float64 `json:"max_score"`
	MaxScore   float64 `json:"max_possible"`
	SampleSize int     `json:"patient_count"`
}

// DomainDistribution computes per-domain statistics in descriptor order.
// Domains no row carries are omitted; no rows gives an empty slice.
func DomainDistribution(rows []Row, d scoring.Descriptor) []DomainStat {
	out := []DomainStat{}
	for _, dom := range d.Domains {
		st := DomainStat{Domain: dom.Label, Key: dom.Key, MaxScore: dom.Max}
		var sum float64
		for _, r := range rows {
			v, ok := r.Scores[dom.Key]
			if !ok {
				continue
			}
			if st.SampleSize == 0 || v < st.Min {
				st.Min = v
			}
			if st.SampleSize == 0 || v > st.Max {
				st.Max = v
			}
			sum += v
			st.SampleSize++
		}
		if st.SampleSize == 0 {
			continue
		}
		st.Average = average(sum, st.SampleSize)
		out = append(out, st)
	}
	return out
}

var monthLabels = [...]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// MonthLabel returns the fixed three-letter Portuguese label of m.
func MonthLabel(m time.Month) string {
	return monthLabels[m-1]
}

type MonthBucket struct {
	Key          string         `json:"key"`
	Month        string         `json:"month"`
	Year         int            `json:"year"`
	Counts       map[string]int `json:"counts"`
	Total        int            `json:"total"`
	AverageScore float64        `json:"average_score"`
}

// MonthlyEvolution groups rows by calendar month, ascending. value picks the
// number averaged per month.
func MonthlyEvolution(rows []Row, labels []string, value func(Row) float64) []MonthBucket {
	type acc struct {
		b   MonthBucket
		sum float64
	}
	byKey := map[string]*acc{}
	for _, r := range rows {
		y, m, _ := r.EvaluationDate.Date()
		key := r.EvaluationDate.Format("2006-01")
		a, ok := byKey[key]
		if !ok {
			a = &acc{b: MonthBucket{Key: key, Month: MonthLabel(m), Year: y, Counts: make(map[string]int, len(labels))}}
			for _, l := range labels {
				a.b.Counts[l] = 0
			}
			byKey[key] = a
		}
		if _, ok := a.b.Counts[r.Classification]; ok {
			a.b.Counts[r.Classification]++
		}
		a.b.Total++
		a.sum += value(r)
	}

	out := make([]MonthBucket, 0, len(byKey))
	for _, a := range byKey {
		a.b.AverageScore = average(a.sum, a.b.Total)
		out = append(out, a.b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// WindowStart is the first day of the month monthsBack months before the
// month of anchor.
func WindowStart(anchor time.Time, monthsBack int) time.Time {
	y, m, _ := anchor.Date()
	return time.Date(y, m-time.Month(monthsBack), 1, 0, 0, 0, 0, time.UTC)
}

type RegionAverage struct {
	Region       string         `json:"region"`
	Neighborhood string         `json:"bairro"`
	AverageScore float64        `json:"average_score"`
	PatientCount int            `json:"patient_count"`
	Counts       map[string]int `json:"counts"`
}

// RegionalAverages groups rows by the health unit's (region, neighbourhood).
// Rows without a region are left out.
func RegionalAverages(rows []Row, labels []string) []RegionAverage {
	type key struct{ region, bairro string }
	sums := map[key]float64{}
	byKey := map[key]*RegionAverage{}
	for _, r := range rows {
		if r.Region == "" {
			continue
		}
		k := key{r.Region, r.UnitBairro}
		ra, ok := byKey[k]
		if !ok {
			ra = &RegionAverage{Region: k.region, Neighborhood: k.bairro, Counts: make(map[string]int, len(labels))}
			for _, l := range labels {
				ra.Counts[l] = 0
			}
			byKey[k] = ra
		}
		if _, ok := ra.Counts[r.Classification]; ok {
			ra.Counts[r.Classification]++
		}
		ra.PatientCount++
		sums[k] += r.Total
	}

	out := make([]RegionAverage, 0, len(byKey))
	for k, ra := range byKey {
		ra.AverageScore = average(sums[k], ra.PatientCount)
		out = append(out, *ra)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].Neighborhood < out[j].Neighborhood
	})
	return out
}

type FragileStat struct {
	Total      int            `json:"total"`
	Fragile    int            `json:"fragile"`
	Percentage float64        `json:"percentage"`
	Breakdown  map[string]int `json:"breakdown"`
}

// FragilePercentage derives numerator and denominator from the same rows.
func FragilePercentage(rows []Row) FragileStat {
	st := FragileStat{Total: len(rows), Breakdown: map[string]int{}}
	for _, l := range scoring.IVCFScale().Labels() {
		st.Breakdown[l] = 0
	}
	for _, r := range rows {
		if _, ok := st.Breakdown[r.Classification]; ok {
			st.Breakdown[r.Classification]++
		}
	}
	st.Fragile = st.Breakdown[scoring.IVCFFragil]
	st.Percentage = percent(st.Fragile, st.Total)
	return st
}

type CriticalPatient struct {
	PatientID      uuid.UUID `json:"patient_id"`
	Name           string    `json:"nome_completo"`
	Age            int       `json:"idade"`
	Neighborhood   string    `json:"bairro,omitempty"`
	HealthUnit     string    `json:"unidade_saude,omitempty"`
	Score          float64   `json:"score"`
	TotalScore     float64   `json:"pontuacao_total"`
	Classification string    `json:"classificacao"`
	WHOCompliant   *bool     `json:"who_compliance,omitempty"`
	Comorbidities  string    `json:"comorbidades,omitempty"`
	EvaluationDate time.Time `json:"data_avaliacao"`
}

// LatestPerPatient keeps the most recent row of each patient, preserving
// the order of first appearance of that latest row.
func LatestPerPatient(rows []Row) []Row {
	last := make(map[uuid.UUID]int, len(rows))
	for i, r := range rows {
		j, ok := last[r.PatientID]
		if !ok || !r.EvaluationDate.Before(rows[j].EvaluationDate) {
			last[r.PatientID] = i
		}
	}
	out := make([]Row, 0, len(last))
	for i, r := range rows {
		if last[r.PatientID] == i {
			out = append(out, r)
		}
	}
	return out
}

// CriticalPatients lists the latest evaluation of each patient that
// isCritical accepts. score is the value reported and ranked on; desc puts
// the highest score first.
func CriticalPatients(rows []Row, isCritical func(Row) bool, score func(Row) float64, desc bool) []CriticalPatient {
	selected := criticalRows(rows, isCritical, score, desc)
	out := make([]CriticalPatient, len(selected))
	for i, r := range selected {
		out[i] = newCriticalPatient(r, score(r))
	}
	return out
}

func criticalRows(rows []Row, isCritical func(Row) bool, score func(Row) float64, desc bool) []Row {
	var out []Row
	for _, r := range LatestPerPatient(rows) {
		if isCritical(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return score(out[i]) > score(out[j])
		}
		return score(out[i]) < score(out[j])
	})
	return out
}

func newCriticalPatient(r Row, score float64) CriticalPatient {
	return CriticalPatient{
		PatientID:      r.PatientID,
		Name:           r.PatientName,
		Age:            r.Age,
		Neighborhood:   r.Neighborhood,
		HealthUnit:     r.HealthUnit,
		Score:          score,
		TotalScore:     r.Total,
		Classification: r.Classification,
		Comorbidities:  r.Comorbidities,
		EvaluationDate: r.EvaluationDate,
	}
}

func distinctPatients(rows []Row) int {
	seen := make(map[uuid.UUID]struct{}, len(rows))
	for _, r := range rows {
		seen[r.PatientID] = struct{}{}
	}
	return len(seen)
}
