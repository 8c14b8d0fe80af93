package scoring

// IVCF-20 frailty labels.
const (
	IVCFRobusto = "Robusto"
	IVCFEmRisco = "Em Risco"
	IVCFFragil  = "Frágil"
)

// FACT-F fatigue labels.
const (
	FatigueNone   = "Sem Fadiga"
	FatigueMild   = "Fadiga Leve"
	FatigueSevere = "Fadiga Grave"
)

// Sedentary risk labels.
const (
	SedentaryLow      = "Baixo"
	SedentaryModerate = "Moderado"
	SedentaryHigh     = "Alto"
	SedentaryCritical = "Crítico"
)

// WHO weekly minimums for adults 65+.
const (
	WHOModerateWeeklyMinutes = 150
	WHOVigorousWeeklyMinutes = 75
)

// Band is the lower-inclusive start of a classification interval.
type Band struct {
	Lower float64
	Label string
}

// Scale is a list of bands in ascending Lower order. The first band covers
// everything below the second band's Lower, so a scale never has gaps.
type Scale []Band

// Classify returns the label of the highest band whose Lower is <= v.
func (s Scale) Classify(v float64) string {
	if len(s) == 0 {
		return ""
	}
	label := s[0].Label
	for _, b := range s[1:] {
		if v < b.Lower {
			break
		}
		label = b.Label
	}
	return label
}

// Labels returns the band labels in scale order.
func (s Scale) Labels() []string {
	out := make([]string, len(s))
	for i, b := range s {
		out[i] = b.Label
	}
	return out
}

var ivcfScale = Scale{
	{Lower: 0, Label: IVCFRobusto},
	{Lower: 13, Label: IVCFEmRisco},
	{Lower: 20, Label: IVCFFragil},
}

// Higher fatigue subscale scores mean less fatigue.
var fatigueScale = Scale{
	{Lower: 0, Label: FatigueSevere},
	{Lower: 30, Label: FatigueMild},
	{Lower: 44, Label: FatigueNone},
}

// IVCFScale returns the IVCF-20 frailty bands.
func IVCFScale() Scale { return append(Scale(nil), ivcfScale...) }

// FatigueScale returns the FACT-F fatigue subscale bands.
func FatigueScale() Scale { return append(Scale(nil), fatigueScale...) }

// ClassifyIVCF maps an IVCF-20 total (0-40) to its frailty label.
func ClassifyIVCF(total int) string {
	return ivcfScale.Classify(float64(total))
}

// ClassifyFatigue maps a FACT-F fatigue subscale (0-52) to its fatigue label.
// The combined FACT-G + fatigue total is never classified.
func ClassifyFatigue(subscale float64) string {
	return fatigueScale.Classify(subscale)
}

// WHOCompliant reports whether weekly activity meets the WHO guideline.
// Either intensity alone qualifies; the two are not combined.
func WHOCompliant(weeklyModerate, weeklyVigorous int) bool {
	return weeklyModerate >= WHOModerateWeeklyMinutes || weeklyVigorous >= WHOVigorousWeeklyMinutes
}

// SedentaryRisk maps daily sedentary hours to a risk label.
//
// These cut-offs follow the sitting-time literature (all-cause mortality rises
// past 6-8 h/day and sharply past 10 h/day). WHO does not publish sedentary
// hour bands; its 2020 guideline only says to limit sedentary time. Exactly
// 10 hours is still Alto.
func SedentaryRisk(hours float64) string {
	switch {
	case hours < 6:
		return SedentaryLow
	case hours < 8:
		return SedentaryModerate
	case hours <= 10:
		return SedentaryHigh
	default:
		return SedentaryCritical
	}
}

// SedentaryRiskLabels returns the sedentary labels from lowest to highest risk.
func SedentaryRiskLabels() []string {
	return []string{SedentaryLow, SedentaryModerate, SedentaryHigh, SedentaryCritical}
}
