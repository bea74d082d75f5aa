// Package scoring implements the clinical risk scoring engine: eGFR
// estimation with trend classification, and the KSLS composite stress score.
//
// Every function in this package is pure and deterministic: no I/O, no
// logging, no shared state. Identical inputs always produce identical
// results, and concurrent callers need no synchronization. Demographic
// context (age framing, sex/race narrative, CKD stage) lives entirely in
// the interpret package, which this package does not import.
package scoring

import "math"

// Blood pressure thresholds (mmHg). Hypertensive readings saturate the
// factor; readings between normotensive and hypertensive are graded.
const (
	systolicNormal        = 120.0
	systolicHypertensive  = 140.0
	diastolicNormal       = 80.0
	diastolicHypertensive = 90.0
)

// Hydration ratio bounds. A ratio of exactly 1.0 contributes nothing;
// severe under- and over-hydration saturate identically.
const (
	hydrationSevereLow  = 0.6
	hydrationSevereHigh = 1.5
)

// BMI band with zero stress contribution, and the saturation points outside it.
const (
	bmiHealthyLow        = 18.5
	bmiHealthyHigh       = 24.9
	bmiSevereObesity     = 40.0
	bmiSevereUnderweight = 15.0
)

// BMI computes body mass index from weight in kilograms and height in
// centimeters. Callers must have validated height > 0.
func BMI(weightKg, heightCm float64) float64 {
	heightM := heightCm / 100
	return weightKg / (heightM * heightM)
}

// NormalizeBloodPressure maps a blood pressure reading to a stress
// contribution in [0,1]. Either systolic >=140 or diastolic >=90 saturates
// the factor; diastolic elevation is weighted as comparably serious to
// systolic. Below the hypertensive thresholds the factor is graded by
// distance above normotensive values.
func NormalizeBloodPressure(systolic, diastolic float64) float64 {
	if systolic >= systolicHypertensive || diastolic >= diastolicHypertensive {
		return 1
	}

	var sysComponent, diaComponent float64
	if systolic > systolicNormal {
		sysComponent = (systolic - systolicNormal) / (systolicHypertensive - systolicNormal)
	}
	if diastolic > diastolicNormal {
		diaComponent = (diastolic - diastolicNormal) / (diastolicHypertensive - diastolicNormal)
	}

	return clamp01(math.Max(sysComponent, diaComponent))
}

// NormalizeHydration maps an intake/target ratio to a stress contribution in
// [0,1]. A ratio of exactly 1 contributes 0; ratios at or beyond 0.6 and 1.5
// saturate to 1; in between the contribution is linear in the distance from
// 1. A target of 0 means no prescribed target, so any intake is accepted.
func NormalizeHydration(intakeLiters, targetLiters float64) float64 {
	if targetLiters <= 0 {
		return 0
	}

	ratio := intakeLiters / targetLiters
	switch {
	case ratio == 1:
		return 0
	case ratio <= hydrationSevereLow || ratio >= hydrationSevereHigh:
		return 1
	case ratio < 1:
		return (1 - ratio) / (1 - hydrationSevereLow)
	default:
		return (ratio - 1) / (hydrationSevereHigh - 1)
	}
}

// NormalizeWeight maps BMI to a stress contribution in [0,1]. BMI within the
// healthy band contributes 0; outside it the contribution grows with distance
// from the band, saturating at severe obesity (BMI >=40) and marked
// underweight (BMI <=15).
func NormalizeWeight(bmi float64) float64 {
	switch {
	case bmi >= bmiHealthyLow && bmi <= bmiHealthyHigh:
		return 0
	case bmi > bmiHealthyHigh:
		return clamp01((bmi - bmiHealthyHigh) / (bmiSevereObesity - bmiHealthyHigh))
	default:
		return clamp01((bmiHealthyLow - bmi) / (bmiHealthyLow - bmiSevereUnderweight))
	}
}

// NormalizeSymptom maps a 1-10 symptom scale to [0,1], or nil when the score
// was not reported. Missing data must not be read as "no stress": a nil
// factor is excluded from aggregation rather than treated as zero.
func NormalizeSymptom(score *float64) *float64 {
	if score == nil {
		return nil
	}
	norm := clamp01(*score / 10)
	return &norm
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
