package scoring

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidney-health-score-server/internal/domain"
)

func baseReading() domain.HealthReading {
	return domain.HealthReading{
		Age:                   45,
		Sex:                   domain.SexMale,
		WeightKg:              78,
		HeightCm:              178,
		SystolicBP:            118,
		DiastolicBP:           76,
		HydrationLiters:       2.0,
		HydrationTargetLiters: 2.0,
		RecordedAt:            time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestEstimateGFR_CreatininePath(t *testing.T) {
	tests := []struct {
		name       string
		sex        domain.Sex
		age        int
		creatinine float64
		want       float64
	}{
		{"Male, mildly elevated creatinine", domain.SexMale, 60, 1.2, 69.2},
		{"Female, elevated creatinine", domain.SexFemale, 70, 1.4, 40.5},
		{"Low creatinine capped at 120", domain.SexFemale, 25, 0.5, 120.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading := baseReading()
			reading.Sex = tt.sex
			reading.Age = tt.age
			reading.CreatinineMgDl = fptr(tt.creatinine)

			estimate, _, err := EstimateGFR(reading, nil)
			require.NoError(t, err)

			assert.InDelta(t, tt.want, estimate.Value, 0.1)
			assert.Equal(t, domain.CreatinineBased, estimate.Method)
			assert.Equal(t, domain.HighConfidence, estimate.Confidence)
			assert.Contains(t, estimate.CalculationLabel, "CKD-EPI")
		})
	}
}

func TestEstimateGFR_SymptomPath(t *testing.T) {
	reading := baseReading()
	reading.FatigueScore = fptr(3)
	reading.StressScore = fptr(4)

	estimate, _, err := EstimateGFR(reading, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.SymptomAndVitalBase, estimate.Method)
	assert.Equal(t, domain.ModerateConfidence, estimate.Confidence)
	assert.GreaterOrEqual(t, estimate.Value, 15.0)
	assert.LessOrEqual(t, estimate.Value, 120.0)
}

func TestEstimateGFR_SymptomPathOrdering(t *testing.T) {
	// A young, well-hydrated, normotensive reading must estimate higher than
	// an older hypertensive one with severe symptoms.
	healthy := baseReading()
	healthy.Age = 28

	burdened := baseReading()
	burdened.Age = 72
	burdened.SystolicBP = 165
	burdened.DiastolicBP = 102
	burdened.HydrationLiters = 0.5
	burdened.WeightKg = 110
	burdened.FatigueScore = fptr(9)
	burdened.StressScore = fptr(9)
	burdened.PainScore = fptr(8)

	healthyEst, _, err := EstimateGFR(healthy, nil)
	require.NoError(t, err)
	burdenedEst, _, err := EstimateGFR(burdened, nil)
	require.NoError(t, err)

	assert.Greater(t, healthyEst.Value, burdenedEst.Value)
}

func TestEstimateGFR_SymptomPathClampedLow(t *testing.T) {
	reading := baseReading()
	reading.Age = 95
	reading.Sex = domain.SexFemale
	reading.SystolicBP = 180
	reading.DiastolicBP = 110
	reading.HydrationLiters = 0
	reading.WeightKg = 130
	reading.HeightCm = 155
	reading.FatigueScore = fptr(10)
	reading.StressScore = fptr(10)
	reading.PainScore = fptr(10)

	estimate, _, err := EstimateGFR(reading, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, estimate.Value, 15.0)
}

func TestEstimateGFR_EmptyHistoryYieldsNoTrend(t *testing.T) {
	reading := baseReading()
	reading.CreatinineMgDl = fptr(1.0)

	_, trend, err := EstimateGFR(reading, nil)
	require.NoError(t, err)
	assert.Nil(t, trend)
}

func TestEstimateGFR_InvalidReading(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.HealthReading)
	}{
		{"Invalid sex", func(r *domain.HealthReading) { r.Sex = "other" }},
		{"Negative age", func(r *domain.HealthReading) { r.Age = -1 }},
		{"Zero weight", func(r *domain.HealthReading) { r.WeightKg = 0 }},
		{"Non-positive creatinine", func(r *domain.HealthReading) { r.CreatinineMgDl = fptr(0) }},
		{"Fatigue above scale", func(r *domain.HealthReading) { r.FatigueScore = fptr(12) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading := baseReading()
			tt.mutate(&reading)

			_, _, err := EstimateGFR(reading, nil)
			require.Error(t, err)
			assert.True(t, domain.IsInputError(err))
		})
	}
}

func samplesAt(values ...float64) []domain.GFRSample {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]domain.GFRSample, len(values))
	for i, v := range values {
		// Oldest first; each sample one week after the previous.
		samples[i] = domain.GFRSample{Value: v, RecordedAt: base.Add(time.Duration(i) * 7 * 24 * time.Hour)}
	}
	return samples
}

func TestAnalyzeTrend_ShortTerm(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		want     domain.Trend
	}{
		{"No change", 50, 50, domain.TrendStable},
		{"Small dip within tolerance", 48, 50, domain.TrendStable},
		{"Moderate decline", 46, 50, domain.TrendPossibleDecline},
		{"Sharp decline", 50, 60, domain.TrendSignificantDecline},
		{"Moderate improvement", 63, 60, domain.TrendPossibleImprovement},
		{"Sharp improvement", 60, 50, domain.TrendSignificantImprovement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnalyzeTrend(tt.current, samplesAt(tt.previous))
			assert.Equal(t, tt.want, result.Trend)
			assert.Equal(t, domain.LongTermUnknown, result.LongTermTrend)
		})
	}
}

func TestAnalyzeTrend_EmptyHistory(t *testing.T) {
	result := AnalyzeTrend(55, nil)
	assert.Equal(t, domain.TrendInsufficientData, result.Trend)
	assert.Equal(t, domain.LongTermUnknown, result.LongTermTrend)
	assert.NotEmpty(t, result.StabilityNote)
}

func TestAnalyzeTrend_UsesMostRecentPrior(t *testing.T) {
	// Comparison is always against the newest prior sample, regardless of
	// slice order.
	samples := []domain.GFRSample{
		{Value: 80, RecordedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Value: 60, RecordedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	result := AnalyzeTrend(78, samples)
	assert.Equal(t, domain.TrendStable, result.Trend)
	assert.InDelta(t, -2.5, result.PercentChange, 0.01)
	assert.InDelta(t, -2.0, result.AbsoluteChange, 0.01)
}

func TestAnalyzeTrend_LongTerm(t *testing.T) {
	tests := []struct {
		name   string
		values []float64 // oldest first
		want   domain.LongTermTrend
	}{
		{"Consistent within tolerance", []float64{60, 61, 60.5}, domain.LongTermConsistent},
		{"Monotonic decline", []float64{70, 65, 60}, domain.LongTermDeclining},
		{"Monotonic improvement", []float64{50, 55, 60}, domain.LongTermImproving},
		{"Fluctuating", []float64{60, 50, 58}, domain.LongTermFluctuating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnalyzeTrend(60, samplesAt(tt.values...))
			assert.Equal(t, tt.want, result.LongTermTrend)
			assert.NotEmpty(t, result.StabilityNote)
		})
	}
}

func TestAnalyzeTrend_TwoPriorsStayUnknown(t *testing.T) {
	result := AnalyzeTrend(60, samplesAt(62, 61))
	assert.Equal(t, domain.LongTermUnknown, result.LongTermTrend)
}

func TestAnalyzeTrend_DoesNotMutateHistory(t *testing.T) {
	samples := samplesAt(70, 65, 60)
	original := make([]domain.GFRSample, len(samples))
	copy(original, samples)

	AnalyzeTrend(58, samples)
	assert.Equal(t, original, samples)
}

func TestInterpretGFR_StageBoundaries(t *testing.T) {
	tests := []struct {
		value float64
		stage string
	}{
		{120, "G1"},
		{90, "G1"},
		{89.9, "G2"},
		{60, "G2"},
		{59.9, "G3a"},
		{45, "G3a"},
		{44.9, "G3b"},
		{30, "G3b"},
		{29.9, "G4"},
		{15, "G4"},
		{14.9, "G5"},
	}

	for _, tt := range tests {
		info := InterpretGFR(tt.value)
		assert.Equal(t, tt.stage, info.Stage, "value %.1f", tt.value)
		assert.NotEmpty(t, info.Description)
	}
}

func TestGFRRecommendation(t *testing.T) {
	t.Run("Symptom-based estimate carries disclaimer", func(t *testing.T) {
		rec := GFRRecommendation(72, domain.SymptomAndVitalBase, nil)
		assert.Contains(t, rec, "requires clinical confirmation")
		assert.Contains(t, rec, "G2")
	})

	t.Run("Creatinine-based estimate has no disclaimer", func(t *testing.T) {
		rec := GFRRecommendation(72, domain.CreatinineBased, nil)
		assert.NotContains(t, rec, "requires clinical confirmation")
	})

	t.Run("Significant decline adds urgency", func(t *testing.T) {
		trend := &domain.TrendResult{Trend: domain.TrendSignificantDecline, PercentChange: -14.2}
		rec := GFRRecommendation(48, domain.CreatinineBased, trend)
		assert.Contains(t, rec, "promptly")
		assert.Contains(t, strings.ToLower(rec), "dropped notably")
	})

	t.Run("Advanced stage recommends nephrology", func(t *testing.T) {
		rec := GFRRecommendation(22, domain.CreatinineBased, nil)
		assert.Contains(t, rec, "nephrologist")
	})
}
