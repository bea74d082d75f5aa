package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidney-health-score-server/internal/domain"
	"github.com/kidney-health-score-server/internal/interpret"
)

func TestScoreKey_Deterministic(t *testing.T) {
	pain := 4.0
	input := domain.KSLSInput{
		SystolicBP:            124,
		DiastolicBP:           82,
		HydrationLiters:       1.8,
		HydrationTargetLiters: 2.0,
		WeightKg:              80,
		HeightCm:              178,
		PainScore:             &pain,
	}

	first, err := ScoreKey(input)
	require.NoError(t, err)
	second, err := ScoreKey(input)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A different reading must not collide on the readable prefix path.
	input.SystolicBP = 150
	changed, err := ScoreKey(input)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}

func TestScoreKey_NilVsPresentSymptomDiffer(t *testing.T) {
	input := domain.KSLSInput{WeightKg: 70, HeightCm: 170}
	withoutPain, err := ScoreKey(input)
	require.NoError(t, err)

	pain := 1.0
	input.PainScore = &pain
	withPain, err := ScoreKey(input)
	require.NoError(t, err)

	assert.NotEqual(t, withoutPain, withPain)
}

func TestInterpretationCache(t *testing.T) {
	cache, err := NewInterpretationCache(2)
	require.NoError(t, err)

	cache.Set("a", interpret.Interpretation{Summary: "first"})
	cache.Set("b", interpret.Interpretation{Summary: "second"})

	got, found := cache.Get("a")
	require.True(t, found)
	assert.Equal(t, "first", got.Summary)

	// Exceeding capacity evicts the least recently used entry.
	cache.Set("c", interpret.Interpretation{Summary: "third"})
	_, found = cache.Get("b")
	assert.False(t, found)
	assert.Equal(t, 2, cache.Len())
}
