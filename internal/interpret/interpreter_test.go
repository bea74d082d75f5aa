package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidney-health-score-server/internal/domain"
	"github.com/kidney-health-score-server/internal/scoring"
)

func fptr(v float64) *float64 {
	return &v
}

func moderateResult(t *testing.T) domain.KSLSResult {
	t.Helper()
	result, err := scoring.CalculateKSLS(domain.KSLSInput{
		SystolicBP:            138,
		DiastolicBP:           88,
		HydrationLiters:       1.2,
		HydrationTargetLiters: 2.0,
		WeightKg:              92,
		HeightCm:              175,
		FatigueScore:          fptr(7),
		PainScore:             fptr(3),
		StressScore:           fptr(4),
	})
	require.NoError(t, err)
	return result
}

func TestInterpretKSLS_WithoutDemographics(t *testing.T) {
	result := moderateResult(t)

	interp := InterpretKSLS(result, nil)

	assert.NotEmpty(t, interp.Summary)
	assert.NotEmpty(t, interp.Detail)
	assert.Empty(t, interp.PersonalizedContext)
	assert.NotEmpty(t, interp.TopFactors)
	assert.LessOrEqual(t, len(interp.TopFactors), 3)
}

func TestInterpretKSLS_SafetyNoteAlwaysPresent(t *testing.T) {
	result := moderateResult(t)

	for _, demo := range []*Demographics{
		nil,
		{Age: 35, SexAssignedAtBirth: domain.SexMale},
		{Age: 68, SexAssignedAtBirth: domain.SexFemale, RaceEthnicity: "Black", CKDStage: "3a"},
	} {
		interp := InterpretKSLS(result, demo)
		assert.Contains(t, interp.SafetyNote, "NOT a GFR measurement")
		assert.Contains(t, interp.SafetyNote, "NOT a diagnosis")
		assert.Contains(t, interp.SafetyNote, "healthcare team")
	}
}

func TestInterpretKSLS_DemographicsNeverChangeScoreFacts(t *testing.T) {
	// The hard contract: demographics color the narrative only. Summary,
	// detail, and factor ranking must be byte-identical across every
	// demographic variation, because the numbers were fixed upstream.
	result := moderateResult(t)

	baseline := InterpretKSLS(result, nil)
	variations := []*Demographics{
		{Age: 25, SexAssignedAtBirth: domain.SexMale},
		{Age: 70, SexAssignedAtBirth: domain.SexFemale},
		{Age: 55, SexAssignedAtBirth: domain.SexFemale, RaceEthnicity: "Hispanic"},
		{Age: 80, SexAssignedAtBirth: domain.SexMale, CKDStage: "3b"},
	}

	for _, demo := range variations {
		interp := InterpretKSLS(result, demo)
		assert.Equal(t, baseline.Summary, interp.Summary)
		assert.Equal(t, baseline.Detail, interp.Detail)
		assert.Equal(t, baseline.TopFactors, interp.TopFactors)
		assert.Equal(t, baseline.SafetyNote, interp.SafetyNote)
	}
}

func TestInterpretKSLS_TopFactorsRankedByMagnitude(t *testing.T) {
	result := moderateResult(t)

	interp := InterpretKSLS(result, nil)
	// Fatigue 0.7 and hydration 1.0 dominate this reading.
	require.NotEmpty(t, interp.TopFactors)
	assert.Equal(t, "hydration", interp.TopFactors[0])
	assert.Contains(t, interp.TopFactors, "fatigue")
}

func TestInterpretKSLS_AgeContext(t *testing.T) {
	result := moderateResult(t)

	older := InterpretKSLS(result, &Demographics{Age: 72, SexAssignedAtBirth: domain.SexMale})
	assert.Contains(t, older.PersonalizedContext, "60+")

	younger := InterpretKSLS(result, &Demographics{Age: 30, SexAssignedAtBirth: domain.SexFemale})
	assert.NotContains(t, younger.PersonalizedContext, "60+")
}

func TestInterpretKSLS_RaceContextIsNarrativeOnly(t *testing.T) {
	result := moderateResult(t)

	interp := InterpretKSLS(result, &Demographics{
		Age:                50,
		SexAssignedAtBirth: domain.SexFemale,
		RaceEthnicity:      "Black",
	})

	assert.Contains(t, interp.PersonalizedContext, "never uses race or ethnicity in any score calculation")
}

func TestInterpretKSLS_CKDStageContextOnlyWhenElevated(t *testing.T) {
	demo := &Demographics{Age: 45, SexAssignedAtBirth: domain.SexMale, CKDStage: "3a"}

	elevated := InterpretKSLS(moderateResult(t), demo)
	assert.Contains(t, elevated.PersonalizedContext, "CKD stage 3a")

	stable, err := scoring.CalculateKSLS(domain.KSLSInput{
		SystolicBP:            112,
		DiastolicBP:           72,
		HydrationLiters:       2.0,
		HydrationTargetLiters: 2.0,
		WeightKg:              70,
		HeightCm:              175,
		FatigueScore:          fptr(1),
		PainScore:             fptr(1),
		StressScore:           fptr(1),
	})
	require.NoError(t, err)
	require.Equal(t, domain.BandStable, stable.Band)

	calm := InterpretKSLS(stable, demo)
	assert.NotContains(t, calm.PersonalizedContext, "CKD stage")
}
