package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBloodPressure(t *testing.T) {
	tests := []struct {
		name      string
		systolic  float64
		diastolic float64
		want      float64
	}{
		{"Normotensive", 115, 75, 0},
		{"At normal boundary", 120, 80, 0},
		{"Systolic hypertensive saturates", 140, 80, 1},
		{"Diastolic hypertensive saturates", 125, 90, 1},
		{"Both hypertensive", 160, 95, 1},
		{"Midway systolic elevation", 130, 78, 0.5},
		{"Midway diastolic elevation", 118, 85, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeBloodPressure(tt.systolic, tt.diastolic)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNormalizeBloodPressure_DiastolicFloor(t *testing.T) {
	// Diastolic elevation alone is weighted as seriously as systolic:
	// diastolic >=90 must never produce a factor below 0.7.
	for _, dia := range []float64{90, 92, 99, 110} {
		got := NormalizeBloodPressure(110, dia)
		assert.GreaterOrEqual(t, got, 0.7, "diastolic %.0f", dia)
	}
}

func TestNormalizeHydration(t *testing.T) {
	tests := []struct {
		name   string
		intake float64
		target float64
		want   float64
	}{
		{"Exactly on target", 2.0, 2.0, 0},
		{"Severe underhydration", 1.0, 2.0, 1},
		{"Below severe threshold", 0.5, 2.0, 1},
		{"Severe overhydration", 3.0, 2.0, 1},
		{"Beyond severe overhydration", 4.0, 2.0, 1},
		{"Mild underhydration is linear", 1.6, 2.0, 0.5},
		{"Mild overhydration is linear", 2.5, 2.0, 0.5},
		{"No prescribed target accepts any intake", 0.2, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeHydration(tt.intake, tt.target)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNormalizeWeight(t *testing.T) {
	tests := []struct {
		name string
		bmi  float64
		want float64
	}{
		{"Low end of healthy band", 18.5, 0},
		{"High end of healthy band", 24.9, 0},
		{"Middle of healthy band", 22.0, 0},
		{"Severe obesity saturates", 40.0, 1},
		{"Beyond severe obesity", 45.0, 1},
		{"Marked underweight saturates", 15.0, 1},
		{"Below marked underweight", 13.0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeWeight(tt.bmi)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNormalizeWeight_GrowsWithDistance(t *testing.T) {
	assert.Less(t, NormalizeWeight(27), NormalizeWeight(32))
	assert.Less(t, NormalizeWeight(32), NormalizeWeight(38))
	assert.Less(t, NormalizeWeight(17.5), NormalizeWeight(16))
}

func TestNormalizeWeight_AnyHealthyPairIsZero(t *testing.T) {
	// Any height/weight pair landing inside the healthy BMI band must
	// contribute zero, regardless of the absolute values.
	pairs := []struct{ weightKg, heightCm float64 }{
		{70, 170},
		{55, 160},
		{85, 190},
		{48, 155},
	}
	for _, p := range pairs {
		bmi := BMI(p.weightKg, p.heightCm)
		if bmi >= 18.5 && bmi <= 24.9 {
			assert.Zero(t, NormalizeWeight(bmi), "bmi %.1f", bmi)
		}
	}
}

func TestNormalizeSymptom(t *testing.T) {
	score := 7.0
	norm := NormalizeSymptom(&score)
	assert.NotNil(t, norm)
	assert.InDelta(t, 0.7, *norm, 1e-9)

	// Absent scores stay nil, never zero.
	assert.Nil(t, NormalizeSymptom(nil))
}
