package scoring

import (
	"errors"
	"fmt"
)

// Instrument identifies one of the assessment questionnaires.
type Instrument string

const (
	InstrumentIVCF     Instrument = "ivcf20"
	InstrumentFACTF    Instrument = "factf"
	InstrumentActivity Instrument = "physical_activity"
)

// ErrUnknownInstrument is returned when an instrument name is not registered.
var ErrUnknownInstrument = errors.New("unknown instrument")

// ParseInstrument maps the accepted external spellings to an Instrument.
func ParseInstrument(s string) (Instrument, error) {
	switch s {
	case "ivcf20", "ivcf", "ivcf-20":
		return InstrumentIVCF, nil
	case "factf", "fact-f":
		return InstrumentFACTF, nil
	case "physical_activity", "physical-activity", "activity":
		return InstrumentActivity, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownInstrument, s)
}

// Domain is one scored field of an instrument with its closed range.
type Domain struct {
	Key      string
	Label    string
	Min      float64
	Max      float64
	Integer  bool
	Required bool
}

// Descriptor is the table that drives validation and classification for an
// instrument. Summed instruments report the sum of their domains as total.
type Descriptor struct {
	Instrument Instrument
	Domains    []Domain
	Summed     bool
	// ClassifyOn names the domain the Scale is applied to. Empty means the
	// total is classified.
	ClassifyOn string
	Scale      Scale
}

// Domain returns the named domain of the descriptor.
func (d Descriptor) Domain(key string) (Domain, bool) {
	for _, dom := range d.Domains {
		if dom.Key == key {
			return dom, true
		}
	}
	return Domain{}, false
}

// MaxTotal is the largest total a summed instrument can report.
func (d Descriptor) MaxTotal() float64 {
	var total float64
	for _, dom := range d.Domains {
		total += dom.Max
	}
	return total
}

// Missing lists the required domains absent from scores.
func (d Descriptor) Missing(scores DomainScoreSet) []string {
	var missing []string
	for _, dom := range d.Domains {
		if !dom.Required {
			continue
		}
		if _, ok := scores[dom.Key]; !ok {
			missing = append(missing, dom.Key)
		}
	}
	return missing
}

// IVCF-20 domain keys.
const (
	DomainIdade         = "dominio_idade"
	DomainComorbidades  = "dominio_comorbidades"
	DomainComunicacao   = "dominio_comunicacao"
	DomainMobilidade    = "dominio_mobilidade"
	DomainHumor         = "dominio_humor"
	DomainCognicao      = "dominio_cognicao"
	DomainAVD           = "dominio_avd"
	DomainAutopercepcao = "dominio_autopercepcao"
)

// FACT-F domain keys.
const (
	DomainBemEstarFisico    = "bem_estar_fisico"
	DomainBemEstarSocial    = "bem_estar_social"
	DomainBemEstarEmocional = "bem_estar_emocional"
	DomainBemEstarFuncional = "bem_estar_funcional"
	DomainSubescalaFadiga   = "subescala_fadiga"
)

// Physical activity field keys.
const (
	FieldLightMinutes    = "light_activity_minutes_per_day"
	FieldLightDays       = "light_activity_days_per_week"
	FieldModerateMinutes = "moderate_activity_minutes_per_day"
	FieldModerateDays    = "moderate_activity_days_per_week"
	FieldVigorousMinutes = "vigorous_activity_minutes_per_day"
	FieldVigorousDays    = "vigorous_activity_days_per_week"
	FieldSedentaryHours  = "sedentary_hours_per_day"
	FieldScreenHours     = "screen_time_hours_per_day"
)

func ivcfDomain(key, label string) Domain {
	return Domain{Key: key, Label: label, Min: 0, Max: 5, Integer: true, Required: true}
}

var ivcfDescriptor = Descriptor{
	Instrument: InstrumentIVCF,
	Domains: []Domain{
		ivcfDomain(DomainIdade, "Idade"),
		ivcfDomain(DomainComorbidades, "Comorbidades"),
		ivcfDomain(DomainComunicacao, "Comunicação"),
		ivcfDomain(DomainMobilidade, "Mobilidade"),
		ivcfDomain(DomainHumor, "Humor"),
		ivcfDomain(DomainCognicao, "Cognição"),
		ivcfDomain(DomainAVD, "AVD"),
		ivcfDomain(DomainAutopercepcao, "Autopercepção"),
	},
	Summed: true,
	Scale:  ivcfScale,
}

var factfDescriptor = Descriptor{
	Instrument: InstrumentFACTF,
	Domains: []Domain{
		{Key: DomainBemEstarFisico, Label: "Bem-estar físico", Max: 28, Required: true},
		{Key: DomainBemEstarSocial, Label: "Bem-estar social/familiar", Max: 28, Required: true},
		{Key: DomainBemEstarEmocional, Label: "Bem-estar emocional", Max: 24, Required: true},
		{Key: DomainBemEstarFuncional, Label: "Bem-estar funcional", Max: 28, Required: true},
		{Key: DomainSubescalaFadiga, Label: "Subescala de fadiga", Max: 52, Required: true},
	},
	Summed:     true,
	ClassifyOn: DomainSubescalaFadiga,
	Scale:      fatigueScale,
}

var activityDescriptor = Descriptor{
	Instrument: InstrumentActivity,
	Domains: []Domain{
		{Key: FieldLightMinutes, Label: "Atividade leve (min/dia)", Max: 480, Integer: true},
		{Key: FieldLightDays, Label: "Atividade leve (dias/semana)", Max: 7, Integer: true},
		{Key: FieldModerateMinutes, Label: "Atividade moderada (min/dia)", Max: 300, Integer: true},
		{Key: FieldModerateDays, Label: "Atividade moderada (dias/semana)", Max: 7, Integer: true},
		{Key: FieldVigorousMinutes, Label: "Atividade vigorosa (min/dia)", Max: 180, Integer: true},
		{Key: FieldVigorousDays, Label: "Atividade vigorosa (dias/semana)", Max: 7, Integer: true},
		{Key: FieldSedentaryHours, Label: "Horas sedentárias/dia", Max: 24, Required: true},
		{Key: FieldScreenHours, Label: "Tempo de tela/dia", Max: 24},
	},
}

// Describe returns the descriptor registered for an instrument.
func Describe(inst Instrument) (Descriptor, error) {
	switch inst {
	case InstrumentIVCF:
		return ivcfDescriptor, nil
	case InstrumentFACTF:
		return factfDescriptor, nil
	case InstrumentActivity:
		return activityDescriptor, nil
	}
	return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownInstrument, inst)
}

// MustDescribe is Describe for instruments known at compile time.
func MustDescribe(inst Instrument) Descriptor {
	d, err := Describe(inst)
	if err != nil {
		panic(err)
	}
	return d
}
