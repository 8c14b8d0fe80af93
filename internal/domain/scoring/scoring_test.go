package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateIVCF(t *testing.T) {
	tests := []struct {
		name  string
		in    IVCFDomains
		total int
		class string
	}{
		{"all zero", IVCFDomains{}, 0, IVCFRobusto},
		{"all five", IVCFDomains{5, 5, 5, 5, 5, 5, 5, 5}, 40, IVCFFragil},
		{"mixed at risk", IVCFDomains{2, 2, 1, 2, 1, 2, 1, 2}, 13, IVCFEmRisco},
		{"upper robust", IVCFDomains{2, 2, 2, 2, 1, 1, 1, 1}, 12, IVCFRobusto},
		{"upper at risk", IVCFDomains{3, 3, 3, 2, 2, 2, 2, 2}, 19, IVCFEmRisco},
		{"lower fragile", IVCFDomains{3, 3, 3, 3, 2, 2, 2, 2}, 20, IVCFFragil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateIVCF(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.total, got.Total)
			assert.Equal(t, tt.class, got.Classification)
		})
	}
}

func TestCalculateIVCF_OutOfRange(t *testing.T) {
	_, err := CalculateIVCF(IVCFDomains{Humor: 6})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDomainScoreOutOfRange))

	var dse *DomainScoreError
	require.True(t, errors.As(err, &dse))
	assert.Equal(t, DomainHumor, dse.Field)
	assert.Equal(t, 6.0, dse.Value)
	assert.Equal(t, 5.0, dse.Max)
}

func TestClassifyIVCF_TotalIsSum(t *testing.T) {
	for total := 0; total <= 40; total++ {
		label := ClassifyIVCF(total)
		switch {
		case total <= 12:
			assert.Equal(t, IVCFRobusto, label, "total %d", total)
		case total <= 19:
			assert.Equal(t, IVCFEmRisco, label, "total %d", total)
		default:
			assert.Equal(t, IVCFFragil, label, "total %d", total)
		}
	}
}

func TestCalculateFACTF(t *testing.T) {
	got, err := CalculateFACTF(FACTFDomains{Fisico: 20, Social: 18, Emocional: 16, Funcional: 15, Fadiga: 44})
	require.NoError(t, err)
	assert.InDelta(t, 113.0, got.Total, 1e-9)
	assert.Equal(t, 44.0, got.FatigueSubscale)
	assert.Equal(t, FatigueNone, got.Classification)
}

func TestClassifyFatigue_Boundaries(t *testing.T) {
	assert.Equal(t, FatigueNone, ClassifyFatigue(44.0))
	assert.Equal(t, FatigueMild, ClassifyFatigue(43.9))
	assert.Equal(t, FatigueMild, ClassifyFatigue(30))
	assert.Equal(t, FatigueSevere, ClassifyFatigue(29.999))
	assert.Equal(t, FatigueSevere, ClassifyFatigue(0))
}

func TestCalculateFACTF_ClassifiesOnFatigueOnly(t *testing.T) {
	low, err := CalculateFACTF(FACTFDomains{Fadiga: 45})
	require.NoError(t, err)
	high, err := CalculateFACTF(FACTFDomains{Fisico: 28, Social: 28, Emocional: 24, Funcional: 28, Fadiga: 45})
	require.NoError(t, err)

	assert.NotEqual(t, low.Total, high.Total)
	assert.Equal(t, low.Classification, high.Classification)
}

func TestCalculateFACTF_Bounds(t *testing.T) {
	_, err := CalculateFACTF(FACTFDomains{Emocional: 24.5})
	assert.ErrorIs(t, err, ErrDomainScoreOutOfRange)

	_, err = CalculateFACTF(FACTFDomains{Fadiga: -0.5})
	assert.ErrorIs(t, err, ErrDomainScoreOutOfRange)

	got, err := CalculateFACTF(FACTFDomains{Fisico: 28, Social: 28, Emocional: 24, Funcional: 28, Fadiga: 52})
	require.NoError(t, err)
	assert.Equal(t, 160.0, got.Total)
}

func TestCalculatePhysicalActivity(t *testing.T) {
	t.Run("moderate thirty by five complies", func(t *testing.T) {
		got, err := CalculatePhysicalActivity(ActivityFields{ModerateMinutes: 30, ModerateDays: 5, SedentaryHours: 5})
		require.NoError(t, err)
		assert.Equal(t, 150, got.WeeklyModerate)
		assert.True(t, got.WHOCompliant)
		assert.Equal(t, SedentaryLow, got.SedentaryRisk)
	})

	t.Run("intensities are not summed", func(t *testing.T) {
		got, err := CalculatePhysicalActivity(ActivityFields{
			ModerateMinutes: 20, ModerateDays: 5,
			VigorousMinutes: 10, VigorousDays: 4,
			SedentaryHours: 7,
		})
		require.NoError(t, err)
		assert.Equal(t, 100, got.WeeklyModerate)
		assert.Equal(t, 40, got.WeeklyVigorous)
		assert.False(t, got.WHOCompliant)
		assert.Equal(t, SedentaryModerate, got.SedentaryRisk)
	})

	t.Run("vigorous alone complies", func(t *testing.T) {
		got, err := CalculatePhysicalActivity(ActivityFields{VigorousMinutes: 25, VigorousDays: 3, SedentaryHours: 9})
		require.NoError(t, err)
		assert.Equal(t, 75, got.WeeklyVigorous)
		assert.True(t, got.WHOCompliant)
	})

	t.Run("light minutes reported", func(t *testing.T) {
		got, err := CalculatePhysicalActivity(ActivityFields{LightMinutes: 60, LightDays: 7, SedentaryHours: 4})
		require.NoError(t, err)
		assert.Equal(t, 420, got.WeeklyLight)
		assert.False(t, got.WHOCompliant)
	})
}

func TestWHOCompliant_Boundaries(t *testing.T) {
	assert.True(t, WHOCompliant(150, 0))
	assert.False(t, WHOCompliant(149, 0))
	assert.True(t, WHOCompliant(0, 75))
	assert.False(t, WHOCompliant(149, 74))
}

func TestSedentaryRisk_Bands(t *testing.T) {
	assert.Equal(t, SedentaryLow, SedentaryRisk(0))
	assert.Equal(t, SedentaryLow, SedentaryRisk(5.9))
	assert.Equal(t, SedentaryModerate, SedentaryRisk(6))
	assert.Equal(t, SedentaryModerate, SedentaryRisk(7.99))
	assert.Equal(t, SedentaryHigh, SedentaryRisk(8))
	assert.Equal(t, SedentaryHigh, SedentaryRisk(10))
	assert.Equal(t, SedentaryCritical, SedentaryRisk(10.01))
	assert.Equal(t, SedentaryCritical, SedentaryRisk(24))
}

func TestSedentaryRisk_Monotonic(t *testing.T) {
	rank := map[string]int{}
	for i, l := range SedentaryRiskLabels() {
		rank[l] = i
	}
	prev := -1
	for h := 0.0; h <= 24; h += 0.25 {
		r := rank[SedentaryRisk(h)]
		assert.GreaterOrEqual(t, r, prev, "hours %v", h)
		prev = r
	}
}

func TestCalculatePhysicalActivity_Validation(t *testing.T) {
	_, err := CalculatePhysicalActivity(ActivityFields{ModerateDays: 8, SedentaryHours: 2})
	assert.ErrorIs(t, err, ErrDomainScoreOutOfRange)

	_, err = CalculatePhysicalActivity(ActivityFields{VigorousMinutes: 181, SedentaryHours: 2})
	assert.ErrorIs(t, err, ErrDomainScoreOutOfRange)

	_, err = CalculatePhysicalActivity(ActivityFields{SedentaryHours: 24.5})
	assert.ErrorIs(t, err, ErrDomainScoreOutOfRange)
}

func TestCalculatePhysicalActivity_TimeBudget(t *testing.T) {
	_, err := CalculatePhysicalActivity(ActivityFields{
		LightMinutes: 240, LightDays: 1,
		ModerateMinutes: 60, ModerateDays: 1,
		SedentaryHours: 22,
	})
	var dse *DomainScoreError
	require.ErrorAs(t, err, &dse)
	assert.Equal(t, FieldSedentaryHours, dse.Field)
	assert.NotEmpty(t, dse.Reason)

	// Minutes without any active day do not count against the budget.
	_, err = CalculatePhysicalActivity(ActivityFields{LightMinutes: 480, SedentaryHours: 24})
	assert.NoError(t, err)
}

func TestCalculate_Idempotent(t *testing.T) {
	scores := IVCFDomains{1, 2, 3, 4, 5, 0, 1, 2}.Scores()
	first, err := Calculate(InstrumentIVCF, scores)
	require.NoError(t, err)
	second, err := Calculate(InstrumentIVCF, scores)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1.0, scores[DomainAVD], "input must not be mutated")
}

func TestCalculate_MissingDomain(t *testing.T) {
	_, err := Calculate(InstrumentIVCF, DomainScoreSet{DomainIdade: 1})
	require.ErrorIs(t, err, ErrMissingDomain)
	assert.Contains(t, err.Error(), DomainAVD)

	_, err = Calculate(InstrumentActivity, DomainScoreSet{FieldModerateMinutes: 30})
	require.ErrorIs(t, err, ErrMissingDomain)
	assert.Contains(t, err.Error(), FieldSedentaryHours)
}

func TestValidate_IgnoresUnknownKeys(t *testing.T) {
	err := Validate(DomainScoreSet{"not_a_domain": 999, DomainHumor: 3}, MustDescribe(InstrumentIVCF))
	assert.NoError(t, err)
}

func TestValidate_IntegerDomain(t *testing.T) {
	err := Validate(DomainScoreSet{DomainHumor: 2.5}, MustDescribe(InstrumentIVCF))
	var dse *DomainScoreError
	require.ErrorAs(t, err, &dse)
	assert.Equal(t, "must be a whole number", dse.Reason)
}

func TestScale_Classify(t *testing.T) {
	s := Scale{{Lower: 0, Label: "a"}, {Lower: 10, Label: "b"}}
	assert.Equal(t, "a", s.Classify(-3))
	assert.Equal(t, "a", s.Classify(9.99))
	assert.Equal(t, "b", s.Classify(10))
	assert.Equal(t, "", Scale{}.Classify(1))
	assert.Equal(t, []string{IVCFRobusto, IVCFEmRisco, IVCFFragil}, IVCFScale().Labels())
}

func TestParseInstrument(t *testing.T) {
	inst, err := ParseInstrument("physical-activity")
	require.NoError(t, err)
	assert.Equal(t, InstrumentActivity, inst)

	_, err = ParseInstrument("sf36")
	assert.ErrorIs(t, err, ErrUnknownInstrument)
}

func TestDescriptor_MaxTotal(t *testing.T) {
	assert.Equal(t, 40.0, MustDescribe(InstrumentIVCF).MaxTotal())
	assert.Equal(t, 160.0, MustDescribe(InstrumentFACTF).MaxTotal())
}

func TestScore_OnlyAnsweredFields(t *testing.T) {
	two, fatigue := 2, 40.0

	_, err := Score(IVCFSubmission{Idade: &two})
	require.ErrorIs(t, err, ErrMissingDomain)
	assert.NotContains(t, err.Error(), DomainIdade)
	assert.Contains(t, err.Error(), DomainComorbidades)

	_, err = Score(FACTFSubmission{Fadiga: &fatigue})
	require.ErrorIs(t, err, ErrMissingDomain)

	res, err := Score(IVCFSubmission{
		Idade: &two, Comorbidades: &two, Comunicacao: &two, Mobilidade: &two,
		Humor: &two, Cognicao: &two, AVD: &two, Autopercepcao: &two,
	})
	require.NoError(t, err)
	assert.Equal(t, IVCFScore{Total: 16, Classification: IVCFEmRisco}, res.IVCF())
}

func TestSubmission_ProvidedSkipsNil(t *testing.T) {
	hours := 7.5
	got := ActivitySubmission{SedentaryHours: &hours}.Provided()
	assert.Equal(t, DomainScoreSet{FieldSedentaryHours: 7.5}, got)
	assert.Empty(t, IVCFSubmission{}.Provided())
}
