package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/painelsaude/painel/internal/domain/scoring"
	"github.com/painelsaude/painel/internal/platform/metrics"
)

// Config holds the dashboard defaults.
type Config struct {
	CriticalIVCFMinScore    float64
	CriticalFatigueMaxScore float64
	Regions                 []string
}

// Report pairs an aggregation with the filters that produced it.
type Report[T any] struct {
	Data           T              `json:"data"`
	FiltersApplied FiltersApplied `json:"filters_applied"`
}

// MonthWindow selects how many months a monthly evolution covers and
// whether the window ends at the latest evaluation instead of today.
type MonthWindow struct {
	MonthsBack int
	FromLatest bool
}

const (
	DefaultMonthsBack  = 6
	DefaultTrendMonths = 12
)

// Service runs the dashboards. Each view fetches one row set per request
// and derives every number in it from that set.
type Service struct {
	store   Store
	cfg     Config
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(store Store, cfg Config, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{store: store, cfg: cfg, metrics: m, logger: logger, now: time.Now}
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Regions returns the regions accepted by the region filter.
func (s *Service) Regions() []string {
	return append([]string(nil), s.cfg.Regions...)
}

func (s *Service) rows(ctx context.Context, inst scoring.Instrument, view string, f Filter) ([]Row, error) {
	start := time.Now()
	rows, err := s.store.Rows(ctx, inst, f)
	s.metrics.ObserveDashboard(string(inst), view, time.Since(start))
	if err != nil {
		s.logger.Error().Err(err).Str("instrument", string(inst)).Str("view", view).Msg("dashboard query failed")
		return nil, fmt.Errorf("%s %s: %w", inst, view, err)
	}
	s.logger.Debug().
		Str("instrument", string(inst)).
		Str("view", view).
		Int("rows", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("dashboard computed")
	return rows, nil
}

func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ivcfCritical is a frail evaluation at or above the minimum total. Higher
// IVCF-20 totals mean frailer patients.
func ivcfCritical(minScore float64) func(Row) bool {
	return func(r Row) bool {
		return r.Classification == scoring.IVCFFragil && r.Total >= minScore
	}
}

func (s *Service) Summary(ctx context.Context, inst scoring.Instrument, f Filter) (*Report[Summary], error) {
	rows, err := s.rows(ctx, inst, "summary", f)
	if err != nil {
		return nil, err
	}
	var critical func(Row) bool
	if inst == scoring.InstrumentIVCF {
		critical = ivcfCritical(s.cfg.CriticalIVCFMinScore)
	}
	return &Report[Summary]{Data: Summarize(rows, Labels(inst), critical), FiltersApplied: f.Applied(len(rows))}, nil
}

func (s *Service) DomainDistribution(ctx context.Context, inst scoring.Instrument, f Filter) (*Report[[]DomainStat], error) {
	d, err := scoring.Describe(inst)
	if err != nil {
		return nil, err
	}
	rows, err := s.rows(ctx, inst, "domain_distribution", f)
	if err != nil {
		return nil, err
	}
	return &Report[[]DomainStat]{Data: DomainDistribution(rows, d), FiltersApplied: f.Applied(len(rows))}, nil
}

func (s *Service) RegionAverages(ctx context.Context, f Filter) (*Report[[]RegionAverage], error) {
	rows, err := s.rows(ctx, scoring.InstrumentIVCF, "region_averages", f)
	if err != nil {
		return nil, err
	}
	regions := RegionalAverages(rows, Labels(scoring.InstrumentIVCF))
	total := 0
	for _, r := range regions {
		total += r.PatientCount
	}
	return &Report[[]RegionAverage]{Data: regions, FiltersApplied: f.Applied(total)}, nil
}

func (s *Service) FragilePercentage(ctx context.Context, f Filter) (*Report[FragileStat], error) {
	rows, err := s.rows(ctx, scoring.InstrumentIVCF, "fragile_percentage", f)
	if err != nil {
		return nil, err
	}
	st := FragilePercentage(rows)
	return &Report[FragileStat]{Data: st, FiltersApplied: f.Applied(st.Total)}, nil
}

// monthRows fetches the rows of the window w. A window anchored at the
// latest evaluation cannot be pushed down, so it is clipped in memory.
func (s *Service) monthRows(ctx context.Context, inst scoring.Instrument, view string, f Filter, w MonthWindow) ([]Row, Filter, error) {
	if w.MonthsBack == 0 {
		w.MonthsBack = DefaultMonthsBack
	}
	if w.MonthsBack < 1 || w.MonthsBack > 24 {
		return nil, f, &FilterError{Field: "months_back", Value: fmt.Sprint(w.MonthsBack), Reason: "must be between 1 and 24"}
	}

	if !w.FromLatest {
		start := WindowStart(s.today(), w.MonthsBack)
		if f.From == nil || f.From.Before(start) {
			f.From = &start
		}
		rows, err := s.rows(ctx, inst, view, f)
		return rows, f, err
	}

	rows, err := s.rows(ctx, inst, view, f)
	if err != nil || len(rows) == 0 {
		return rows, f, err
	}
	start := WindowStart(rows[len(rows)-1].EvaluationDate, w.MonthsBack)
	i := sort.Search(len(rows), func(i int) bool { return !rows[i].EvaluationDate.Before(start) })
	return rows[i:], f, nil
}

func (s *Service) MonthlyEvolution(ctx context.Context, inst scoring.Instrument, f Filter, w MonthWindow) (*Report[[]MonthBucket], error) {
	rows, applied, err := s.monthRows(ctx, inst, "monthly_evolution", f, w)
	if err != nil {
		return nil, err
	}
	value := func(r Row) float64 { return r.Total }
	if inst == scoring.InstrumentActivity {
		value = Row.SedentaryHours
	}
	return &Report[[]MonthBucket]{
		Data:           MonthlyEvolution(rows, Labels(inst), value),
		FiltersApplied: windowApplied(applied, w, len(rows)),
	}, nil
}

func (s *Service) MonthlyFatigue(ctx context.Context, f Filter, w MonthWindow) (*Report[[]FatigueMonth], error) {
	rows, applied, err := s.monthRows(ctx, scoring.InstrumentFACTF, "monthly_evolution", f, w)
	if err != nil {
		return nil, err
	}
	return &Report[[]FatigueMonth]{Data: MonthlyFatigue(rows), FiltersApplied: windowApplied(applied, w, len(rows))}, nil
}

func windowApplied(f Filter, w MonthWindow, total int) FiltersApplied {
	fa := f.Applied(total)
	n := w.MonthsBack
	if n == 0 {
		n = DefaultMonthsBack
	}
	if w.FromLatest {
		fa.Period = fmt.Sprintf("Últimos %d meses a partir da última avaliação", n)
	} else {
		fa.Period = fmt.Sprintf("Últimos %d meses", n)
	}
	return fa
}

// CriticalPatients lists each patient whose latest evaluation crosses the
// instrument's critical threshold. The direction differs per instrument:
//
//	IVCF-20   frail and total >= threshold, highest first (higher = frailer)
//	FACT-F    fatigue subscale <= threshold, lowest first (lower = more fatigued)
//	activity  sedentary risk Crítico (> 10 h/day), most sedentary first
//
// A nil threshold uses the configured default. Activity ignores it.
func (s *Service) CriticalPatients(ctx context.Context, inst scoring.Instrument, f Filter, threshold *float64) (*Report[[]CriticalPatient], error) {
	var list func([]Row) []CriticalPatient

	switch inst {
	case scoring.InstrumentIVCF:
		minScore := s.cfg.CriticalIVCFMinScore
		if threshold != nil {
			minScore = *threshold
		}
		if minScore < 0 || minScore > scoring.MustDescribe(inst).MaxTotal() {
			return nil, &FilterError{Field: "pontuacao_minima", Value: fmt.Sprint(minScore), Reason: "must be between 0 and 40"}
		}
		list = func(rows []Row) []CriticalPatient {
			return CriticalPatients(rows, ivcfCritical(minScore), func(r Row) float64 { return r.Total }, true)
		}
	case scoring.InstrumentFACTF:
		maxFatigue := s.cfg.CriticalFatigueMaxScore
		if threshold != nil {
			maxFatigue = *threshold
		}
		if fatigue, _ := scoring.MustDescribe(inst).Domain(scoring.DomainSubescalaFadiga); maxFatigue < 0 || maxFatigue > fatigue.Max {
			return nil, &FilterError{Field: "min_score", Value: fmt.Sprint(maxFatigue), Reason: "must be between 0 and 52"}
		}
		list = func(rows []Row) []CriticalPatient {
			return CriticalPatients(rows, func(r Row) bool { return r.Fatigue <= maxFatigue }, func(r Row) float64 { return r.Fatigue }, false)
		}
	default:
		list = CriticalSedentary
	}

	rows, err := s.rows(ctx, inst, "critical_patients", f)
	if err != nil {
		return nil, err
	}
	patients := list(rows)
	fa := f.Applied(len(patients))
	if inst == scoring.InstrumentIVCF && fa.Classification == "" {
		fa.Classification = scoring.IVCFFragil
	}
	return &Report[[]CriticalPatient]{Data: patients, FiltersApplied: fa}, nil
}

func (s *Service) FatigueSummary(ctx context.Context, f Filter) (*Report[FatigueSummary], error) {
	rows, err := s.rows(ctx, scoring.InstrumentFACTF, "summary", f)
	if err != nil {
		return nil, err
	}
	sum := SummarizeFatigue(rows, s.cfg.CriticalFatigueMaxScore, s.today())
	return &Report[FatigueSummary]{Data: sum, FiltersApplied: f.Applied(sum.TotalPatients)}, nil
}

func (s *Service) FatigueDistribution(ctx context.Context, f Filter) (*Report[FatigueDistribution], error) {
	rows, err := s.rows(ctx, scoring.InstrumentFACTF, "fatigue_distribution", f)
	if err != nil {
		return nil, err
	}
	return &Report[FatigueDistribution]{Data: DistributeFatigue(rows), FiltersApplied: f.Applied(len(rows))}, nil
}

func (s *Service) ActivitySummary(ctx context.Context, f Filter) (*Report[ActivitySummary], error) {
	rows, err := s.rows(ctx, scoring.InstrumentActivity, "summary", f)
	if err != nil {
		return nil, err
	}
	sum := SummarizeActivity(rows)
	return &Report[ActivitySummary]{Data: sum, FiltersApplied: f.Applied(sum.PatientsEvaluated)}, nil
}

func (s *Service) ActivityDistribution(ctx context.Context, f Filter) (*Report[ActivityDistribution], error) {
	rows, err := s.rows(ctx, scoring.InstrumentActivity, "activity_distribution", f)
	if err != nil {
		return nil, err
	}
	return &Report[ActivityDistribution]{Data: DistributeActivity(rows), FiltersApplied: f.Applied(len(rows))}, nil
}

func (s *Service) WHOCompliance(ctx context.Context, f Filter) (*Report[WHOBreakdown], error) {
	rows, err := s.rows(ctx, scoring.InstrumentActivity, "who_compliance", f)
	if err != nil {
		return nil, err
	}
	return &Report[WHOBreakdown]{Data: BreakdownWHO(rows), FiltersApplied: f.Applied(len(rows))}, nil
}

func (s *Service) SedentaryByAge(ctx context.Context, f Filter) (*Report[[]AgeSedentary], error) {
	rows, err := s.rows(ctx, scoring.InstrumentActivity, "sedentary_by_age", f)
	if err != nil {
		return nil, err
	}
	return &Report[[]AgeSedentary]{Data: SedentaryByAge(rows), FiltersApplied: f.Applied(distinctPatients(rows))}, nil
}

// AllPatients lists every active patient in the scope of f with their latest
// evaluation of inst. Period and classification narrow the evaluations
// considered; a classification also drops patients whose latest evaluation
// has another label or who have none.
func (s *Service) AllPatients(ctx context.Context, inst scoring.Instrument, f Filter) (*Report[[]PatientOverview], error) {
	patients, err := s.store.Patients(ctx, f)
	if err != nil {
		s.logger.Error().Err(err).Str("instrument", string(inst)).Str("view", "all_patients").Msg("dashboard query failed")
		return nil, fmt.Errorf("%s all_patients: %w", inst, err)
	}
	rf := f
	rf.Classification = ""
	rows, err := s.rows(ctx, inst, "all_patients", rf)
	if err != nil {
		return nil, err
	}
	list := AllPatients(inst, patients, rows)
	if f.Classification != "" {
		kept := list[:0]
		for _, p := range list {
			if p.Classification != nil && *p.Classification == f.Classification {
				kept = append(kept, p)
			}
		}
		list = kept
	}
	return &Report[[]PatientOverview]{Data: list, FiltersApplied: f.Applied(len(list))}, nil
}

// PatientDomainDistribution compares a patient's latest FACT-F domains with
// the regional averages.
func (s *Service) PatientDomainDistribution(ctx context.Context, patientID uuid.UUID, f Filter) (*Report[PatientDomains], error) {
	rows, err := s.rows(ctx, scoring.InstrumentFACTF, "patient_domain_distribution", f)
	if err != nil {
		return nil, err
	}
	pd, err := ComparePatientDomains(rows, patientID, scoring.MustDescribe(scoring.InstrumentFACTF))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, patientID)
	}
	return &Report[PatientDomains]{Data: pd, FiltersApplied: f.Applied(pd.PeerCount)}, nil
}

// SedentaryTrend reports monthly sedentary hours of diabetic and
// hypertensive patients over the last w.MonthsBack months (12 by default).
func (s *Service) SedentaryTrend(ctx context.Context, f Filter, w MonthWindow) (*Report[[]ConditionTrend], error) {
	if w.MonthsBack == 0 {
		w.MonthsBack = DefaultTrendMonths
	}
	rows, applied, err := s.monthRows(ctx, scoring.InstrumentActivity, "sedentary_trend", f, w)
	if err != nil {
		return nil, err
	}
	return &Report[[]ConditionTrend]{
		Data:           SedentaryTrend(rows, TrendConditions()),
		FiltersApplied: windowApplied(applied, w, distinctPatients(rows)),
	}, nil
}
