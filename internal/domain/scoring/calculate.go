package scoring

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingDomain is returned when a required domain is absent.
var ErrMissingDomain = errors.New("missing required domain")

// maxDailyHours is 24h plus a 2h allowance, since activity can overlap with
// time reported as sedentary.
const maxDailyHours = 26.0

// Result is the derived data of one evaluation. Activity is set only for the
// physical activity instrument; Total and Classification only for summed ones.
type Result struct {
	Instrument      Instrument
	Total           float64
	FatigueSubscale *float64
	Classification  string
	Activity        *ActivityScore
}

// Calculate validates scores against the instrument and derives its totals
// and classification. Input is never mutated and the result depends only on
// the input, so repeated calls agree.
func Calculate(inst Instrument, scores DomainScoreSet) (Result, error) {
	d, err := Describe(inst)
	if err != nil {
		return Result{}, err
	}
	if missing := d.Missing(scores); len(missing) > 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrMissingDomain, strings.Join(missing, ", "))
	}
	if err := Validate(scores, d); err != nil {
		return Result{}, err
	}

	res := Result{Instrument: inst}
	if d.Summed {
		for _, dom := range d.Domains {
			res.Total += scores[dom.Key]
		}
		scored := res.Total
		if d.ClassifyOn != "" {
			v := scores[d.ClassifyOn]
			scored = v
			res.FatigueSubscale = &v
		}
		res.Classification = d.Scale.Classify(scored)
		return res, nil
	}

	act, err := deriveActivity(activityFieldsFrom(scores))
	if err != nil {
		return Result{}, err
	}
	res.Activity = &act
	return res, nil
}

// IVCFDomains holds the eight IVCF-20 domain scores.
type IVCFDomains struct {
	Idade         int `json:"dominio_idade"`
	Comorbidades  int `json:"dominio_comorbidades"`
	Comunicacao   int `json:"dominio_comunicacao"`
	Mobilidade    int `json:"dominio_mobilidade"`
	Humor         int `json:"dominio_humor"`
	Cognicao      int `json:"dominio_cognicao"`
	AVD           int `json:"dominio_avd"`
	Autopercepcao int `json:"dominio_autopercepcao"`
}

// Scores converts the domains to a score set.
func (d IVCFDomains) Scores() DomainScoreSet {
	return DomainScoreSet{
		DomainIdade:         float64(d.Idade),
		DomainComorbidades:  float64(d.Comorbidades),
		DomainComunicacao:   float64(d.Comunicacao),
		DomainMobilidade:    float64(d.Mobilidade),
		DomainHumor:         float64(d.Humor),
		DomainCognicao:      float64(d.Cognicao),
		DomainAVD:           float64(d.AVD),
		DomainAutopercepcao: float64(d.Autopercepcao),
	}
}

// IVCFScore is the derived IVCF-20 result.
type IVCFScore struct {
	Total          int    `json:"pontuacao_total"`
	Classification string `json:"classificacao"`
}

// CalculateIVCF sums the eight domains (0-40) and classifies the total.
func CalculateIVCF(d IVCFDomains) (IVCFScore, error) {
	res, err := Calculate(InstrumentIVCF, d.Scores())
	if err != nil {
		return IVCFScore{}, err
	}
	return res.IVCF(), nil
}

// IVCF reports an IVCF-20 result in its response shape.
func (r Result) IVCF() IVCFScore {
	return IVCFScore{Total: int(r.Total), Classification: r.Classification}
}

// FACTFDomains holds the FACT-G subscales plus the fatigue subscale.
type FACTFDomains struct {
	Fisico    float64 `json:"bem_estar_fisico"`
	Social    float64 `json:"bem_estar_social"`
	Emocional float64 `json:"bem_estar_emocional"`
	Funcional float64 `json:"bem_estar_funcional"`
	Fadiga    float64 `json:"subescala_fadiga"`
}

// Scores converts the domains to a score set.
func (d FACTFDomains) Scores() DomainScoreSet {
	return DomainScoreSet{
		DomainBemEstarFisico:    d.Fisico,
		DomainBemEstarSocial:    d.Social,
		DomainBemEstarEmocional: d.Emocional,
		DomainBemEstarFuncional: d.Funcional,
		DomainSubescalaFadiga:   d.Fadiga,
	}
}

// FACTFScore is the derived FACT-F result.
type FACTFScore struct {
	Total           float64 `json:"pontuacao_total"`
	FatigueSubscale float64 `json:"subescala_fadiga"`
	Classification  string  `json:"classificacao_fadiga"`
}

// CalculateFACTF sums all five subscales and classifies on the
// fatigue subscale alone.
func CalculateFACTF(d FACTFDomains) (FACTFScore, error) {
	res, err := Calculate(InstrumentFACTF, d.Scores())
	if err != nil {
		return FACTFScore{}, err
	}
	return res.FACTF(), nil
}

func (r Result) FACTF() FACTFScore {
	out := FACTFScore{Total: r.Total, Classification: r.Classification}
	if r.FatigueSubscale != nil {
		out.FatigueSubscale = *r.FatigueSubscale
	}
	return out
}

// ActivityFields are the raw physical activity answers.
type ActivityFields struct {
	LightMinutes    int     `json:"light_activity_minutes_per_day"`
	LightDays       int     `json:"light_activity_days_per_week"`
	ModerateMinutes int     `json:"moderate_activity_minutes_per_day"`
	ModerateDays    int     `json:"moderate_activity_days_per_week"`
	VigorousMinutes int     `json:"vigorous_activity_minutes_per_day"`
	VigorousDays    int     `json:"vigorous_activity_days_per_week"`
	SedentaryHours  float64 `json:"sedentary_hours_per_day"`
	ScreenHours     float64 `json:"screen_time_hours_per_day"`
}

// Scores converts the fields to a score set.
func (f ActivityFields) Scores() DomainScoreSet {
	return DomainScoreSet{
		FieldLightMinutes:    float64(f.LightMinutes),
		FieldLightDays:       float64(f.LightDays),
		FieldModerateMinutes: float64(f.ModerateMinutes),
		FieldModerateDays:    float64(f.ModerateDays),
		FieldVigorousMinutes: float64(f.VigorousMinutes),
		FieldVigorousDays:    float64(f.VigorousDays),
		FieldSedentaryHours:  f.SedentaryHours,
		FieldScreenHours:     f.ScreenHours,
	}
}

// Absent optional fields read as zero.
func activityFieldsFrom(s DomainScoreSet) ActivityFields {
	return ActivityFields{
		LightMinutes:    int(s[FieldLightMinutes]),
		LightDays:       int(s[FieldLightDays]),
		ModerateMinutes: int(s[FieldModerateMinutes]),
		ModerateDays:    int(s[FieldModerateDays]),
		VigorousMinutes: int(s[FieldVigorousMinutes]),
		VigorousDays:    int(s[FieldVigorousDays]),
		SedentaryHours:  s[FieldSedentaryHours],
		ScreenHours:     s[FieldScreenHours],
	}
}

// ActivityScore is the derived physical activity result.
type ActivityScore struct {
	WeeklyLight    int    `json:"total_weekly_light_minutes"`
	WeeklyModerate int    `json:"total_weekly_moderate_minutes"`
	WeeklyVigorous int    `json:"total_weekly_vigorous_minutes"`
	WHOCompliant   bool   `json:"who_compliance"`
	SedentaryRisk  string `json:"sedentary_risk_level"`
}

// CalculatePhysicalActivity derives weekly minutes, WHO compliance and
// sedentary risk from the raw fields. Previously derived values play no part.
func CalculatePhysicalActivity(f ActivityFields) (ActivityScore, error) {
	res, err := Calculate(InstrumentActivity, f.Scores())
	if err != nil {
		return ActivityScore{}, err
	}
	return *res.Activity, nil
}

func deriveActivity(f ActivityFields) (ActivityScore, error) {
	var dailyHours float64
	if f.LightDays > 0 || f.ModerateDays > 0 || f.VigorousDays > 0 {
		dailyHours = float64(f.LightMinutes+f.ModerateMinutes+f.VigorousMinutes) / 60
	}
	if f.SedentaryHours+dailyHours > maxDailyHours {
		return ActivityScore{}, &DomainScoreError{
			Field:  FieldSedentaryHours,
			Value:  f.SedentaryHours,
			Max:    24,
			Reason: "sedentary and activity time exceed the hours in a day",
		}
	}

	weeklyModerate := f.ModerateMinutes * f.ModerateDays
	weeklyVigorous := f.VigorousMinutes * f.VigorousDays
	return ActivityScore{
		WeeklyLight:    f.LightMinutes * f.LightDays,
		WeeklyModerate: weeklyModerate,
		WeeklyVigorous: weeklyVigorous,
		WHOCompliant:   WHOCompliant(weeklyModerate, weeklyVigorous),
		SedentaryRisk:  SedentaryRisk(f.SedentaryHours),
	}, nil
}
