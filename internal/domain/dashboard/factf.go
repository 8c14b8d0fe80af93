package dashboard

import (
	"time"

	"github.com/painelsaude/painel/internal/domain/scoring"
)

type FatigueDomainAverages struct {
	Physical   float64 `json:"physical"`
	Social     float64 `json:"social"`
	Emotional  float64 `json:"emotional"`
	Functional float64 `json:"functional"`
	Fatigue    float64 `json:"fatigue"`
}

type FatigueSummary struct {
	TotalPatients           int                   `json:"total_patients"`
	TotalEvaluations        int                   `json:"total_evaluations"`
	CriticalPatients        int                   `json:"critical_patients_count"`
	SevereFatiguePercentage float64               `json:"severe_fatigue_percentage"`
	AverageTotalScore       float64               `json:"average_total_score"`
	MonthlyGrowthPercentage float64               `json:"monthly_growth_percentage"`
	DomainAverages          FatigueDomainAverages `json:"domain_averages"`
}

// SummarizeFatigue reduces FACT-F rows. Patients are critical when their
// latest fatigue subscale is at or below maxFatigue. Growth compares the
// evaluations of the 30 days up to today with the 30 days before that.
func SummarizeFatigue(rows []Row, maxFatigue float64, today time.Time) FatigueSummary {
	s := FatigueSummary{
		TotalPatients:    distinctPatients(rows),
		TotalEvaluations: len(rows),
	}
	for _, r := range LatestPerPatient(rows) {
		if r.Fatigue <= maxFatigue {
			s.CriticalPatients++
		}
	}
	s.SevereFatiguePercentage = percent(s.CriticalPatients, s.TotalPatients)

	var total float64
	sums := map[string]float64{}
	for _, r := range rows {
		total += r.Total
		for k, v := range r.Scores {
			sums[k] += v
		}
	}
	n := len(rows)
	s.AverageTotalScore = average(total, n)
	s.DomainAverages = FatigueDomainAverages{
		Physical:   average(sums[scoring.DomainBemEstarFisico], n),
		Social:     average(sums[scoring.DomainBemEstarSocial], n),
		Emotional:  average(sums[scoring.DomainBemEstarEmocional], n),
		Functional: average(sums[scoring.DomainBemEstarFuncional], n),
		Fatigue:    average(sums[scoring.DomainSubescalaFadiga], n),
	}

	recentStart := today.AddDate(0, 0, -30)
	previousStart := today.AddDate(0, 0, -60)
	var recent, previous int
	for _, r := range rows {
		d := r.EvaluationDate
		switch {
		case d.After(today):
		case !d.Before(recentStart):
			recent++
		case !d.Before(previousStart):
			previous++
		}
	}
	if previous > 0 {
		s.MonthlyGrowthPercentage = round1(float64(recent-previous) / float64(previous) * 100)
	}
	return s
}

type FatigueDistribution struct {
	Total         int     `json:"total"`
	NoFatigue     float64 `json:"no_fatigue"`
	MildFatigue   float64 `json:"mild_fatigue"`
	SevereFatigue float64 `json:"severe_fatigue"`
}

// DistributeFatigue gives the share of evaluations in each fatigue class.
func DistributeFatigue(rows []Row) FatigueDistribution {
	counts := map[string]int{}
	for _, r := range rows {
		counts[r.Classification]++
	}
	n := len(rows)
	return FatigueDistribution{
		Total:         n,
		NoFatigue:     percent(counts[scoring.FatigueNone], n),
		MildFatigue:   percent(counts[scoring.FatigueMild], n),
		SevereFatigue: percent(counts[scoring.FatigueSevere], n),
	}
}

type FatigueMonth struct {
	MonthBucket
	AverageFatigue float64 `json:"average_fatigue_score"`
}

// MonthlyFatigue extends the monthly evolution with the fatigue subscale
// average of each month.
func MonthlyFatigue(rows []Row) []FatigueMonth {
	buckets := MonthlyEvolution(rows, Labels(scoring.InstrumentFACTF), func(r Row) float64 { return r.Total })
	sums := map[string]float64{}
	for _, r := range rows {
		sums[r.EvaluationDate.Format("2006-01")] += r.Fatigue
	}
	out := make([]FatigueMonth, len(buckets))
	for i, b := range buckets {
		out[i] = FatigueMonth{MonthBucket: b, AverageFatigue: average(sums[b.Key], b.Total)}
	}
	return out
}
