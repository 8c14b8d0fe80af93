package scoring

// Submission is a questionnaire as received from a client. Fields left out
// of the request stay absent from Provided, so a required domain that was
// never answered is reported by Calculate instead of scoring as zero.
type Submission interface {
	Instrument() Instrument
	Provided() DomainScoreSet
}

// Score runs Calculate on the answered fields of sub.
func Score(sub Submission) (Result, error) {
	return Calculate(sub.Instrument(), sub.Provided())
}

type IVCFSubmission struct {
	Idade         *int `json:"dominio_idade"`
	Comorbidades  *int `json:"dominio_comorbidades"`
	Comunicacao   *int `json:"dominio_comunicacao"`
	Mobilidade    *int `json:"dominio_mobilidade"`
	Humor         *int `json:"dominio_humor"`
	Cognicao      *int `json:"dominio_cognicao"`
	AVD           *int `json:"dominio_avd"`
	Autopercepcao *int `json:"dominio_autopercepcao"`
}

func (s IVCFSubmission) Instrument() Instrument { return InstrumentIVCF }

func (s IVCFSubmission) Provided() DomainScoreSet {
	out := DomainScoreSet{}
	out.setInt(DomainIdade, s.Idade)
	out.setInt(DomainComorbidades, s.Comorbidades)
	out.setInt(DomainComunicacao, s.Comunicacao)
	out.setInt(DomainMobilidade, s.Mobilidade)
	out.setInt(DomainHumor, s.Humor)
	out.setInt(DomainCognicao, s.Cognicao)
	out.setInt(DomainAVD, s.AVD)
	out.setInt(DomainAutopercepcao, s.Autopercepcao)
	return out
}

type FACTFSubmission struct {
	Fisico    *float64 `json:"bem_estar_fisico"`
	Social    *float64 `json:"bem_estar_social"`
	Emocional *float64 `json:"bem_estar_emocional"`
	Funcional *float64 `json:"bem_estar_funcional"`
	Fadiga    *float64 `json:"subescala_fadiga"`
}

func (s FACTFSubmission) Instrument() Instrument { return InstrumentFACTF }

func (s FACTFSubmission) Provided() DomainScoreSet {
	out := DomainScoreSet{}
	out.setFloat(DomainBemEstarFisico, s.Fisico)
	out.setFloat(DomainBemEstarSocial, s.Social)
	out.setFloat(DomainBemEstarEmocional, s.Emocional)
	out.setFloat(DomainBemEstarFuncional, s.Funcional)
	out.setFloat(DomainSubescalaFadiga, s.Fadiga)
	return out
}

type ActivitySubmission struct {
	LightMinutes    *int     `json:"light_activity_minutes_per_day"`
	LightDays       *int     `json:"light_activity_days_per_week"`
	ModerateMinutes *int     `json:"moderate_activity_minutes_per_day"`
	ModerateDays    *int     `json:"moderate_activity_days_per_week"`
	VigorousMinutes *int     `json:"vigorous_activity_minutes_per_day"`
	VigorousDays    *int     `json:"vigorous_activity_days_per_week"`
	SedentaryHours  *float64 `json:"sedentary_hours_per_day"`
	ScreenHours     *float64 `json:"screen_time_hours_per_day"`
}

func (s ActivitySubmission) Instrument() Instrument { return InstrumentActivity }

func (s ActivitySubmission) Provided() DomainScoreSet {
	out := DomainScoreSet{}
	out.setInt(FieldLightMinutes, s.LightMinutes)
	out.setInt(FieldLightDays, s.LightDays)
	out.setInt(FieldModerateMinutes, s.ModerateMinutes)
	out.setInt(FieldModerateDays, s.ModerateDays)
	out.setInt(FieldVigorousMinutes, s.VigorousMinutes)
	out.setInt(FieldVigorousDays, s.VigorousDays)
	out.setFloat(FieldSedentaryHours, s.SedentaryHours)
	out.setFloat(FieldScreenHours, s.ScreenHours)
	return out
}

func (s DomainScoreSet) setInt(key string, v *int) {
	if v != nil {
		s[key] = float64(*v)
	}
}

func (s DomainScoreSet) setFloat(key string, v *float64) {
	if v != nil {
		s[key] = *v
	}
}
