package scoring

import (
	"github.com/kidney-health-score-server/internal/domain"
)

// Weights is the per-factor weighting scheme combining normalized factors
// into the 0-100 KSLS. The scheme is an explicit configuration rather than a
// hard-coded constant set: the band boundaries and per-factor behavior are
// contractual, the exact coefficients are a calibration detail awaiting
// clinical validation data.
type Weights struct {
	BloodPressure float64
	Hydration     float64
	Weight        float64
	Fatigue       float64
	Pain          float64
	Stress        float64
}

// DefaultWeights is the provisional calibration used in production. It sums
// to 1 when all factors are present; when symptom scores are missing the
// aggregate is renormalized over the weights of the factors that exist.
var DefaultWeights = Weights{
	BloodPressure: 0.25,
	Hydration:     0.15,
	Weight:        0.15,
	Fatigue:       0.15,
	Pain:          0.10,
	Stress:        0.20,
}

// KSLS band boundaries, fixed by contract: <=33 stable, 34-66 moderate,
// >66 high.
const (
	bandStableMax   = 33.0
	bandModerateMax = 66.0
)

// CalculateKSLS computes the Kidney Stress Load Score for the vitals and
// symptom subset of a reading. It is a pure, total function over well-formed
// input: no I/O, no randomness, no retained state. Symptom factors that are
// absent stay nil in the breakdown and are excluded from the weighted
// aggregate.
func CalculateKSLS(input domain.KSLSInput) (domain.KSLSResult, error) {
	return CalculateKSLSWithWeights(input, DefaultWeights)
}

// CalculateKSLSWithWeights computes the KSLS under an explicit weighting
// scheme. Used by calibration tooling and tests; production callers use
// CalculateKSLS.
func CalculateKSLSWithWeights(input domain.KSLSInput, w Weights) (domain.KSLSResult, error) {
	if err := input.Validate(); err != nil {
		return domain.KSLSResult{}, err
	}

	bmi := BMI(input.WeightKg, input.HeightCm)

	factors := domain.KSLSFactors{
		BPNorm:      NormalizeBloodPressure(input.SystolicBP, input.DiastolicBP),
		HydroNorm:   NormalizeHydration(input.HydrationLiters, input.HydrationTargetLiters),
		WeightNorm:  NormalizeWeight(bmi),
		FatigueNorm: NormalizeSymptom(input.FatigueScore),
		PainNorm:    NormalizeSymptom(input.PainScore),
		StressNorm:  NormalizeSymptom(input.StressScore),
	}

	var weightedSum, weightTotal float64

	weightedSum += w.BloodPressure * factors.BPNorm
	weightTotal += w.BloodPressure
	weightedSum += w.Hydration * factors.HydroNorm
	weightTotal += w.Hydration
	weightedSum += w.Weight * factors.WeightNorm
	weightTotal += w.Weight

	if factors.FatigueNorm != nil {
		weightedSum += w.Fatigue * *factors.FatigueNorm
		weightTotal += w.Fatigue
	}
	if factors.PainNorm != nil {
		weightedSum += w.Pain * *factors.PainNorm
		weightTotal += w.Pain
	}
	if factors.StressNorm != nil {
		weightedSum += w.Stress * *factors.StressNorm
		weightTotal += w.Stress
	}

	ksls := clamp(100*weightedSum/weightTotal, 0, 100)

	return domain.KSLSResult{
		KSLS:    ksls,
		Band:    bandFor(ksls),
		BMI:     bmi,
		Factors: factors,
	}, nil
}

func bandFor(ksls float64) domain.Band {
	switch {
	case ksls <= bandStableMax:
		return domain.BandStable
	case ksls <= bandModerateMax:
		return domain.BandModerate
	default:
		return domain.BandHigh
	}
}
