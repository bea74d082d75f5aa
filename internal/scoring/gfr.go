package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/kidney-health-score-server/internal/domain"
)

// CKD-EPI 2021 (race-free) coefficients. Kappa is the sex-specific reference
// creatinine; alpha applies below the kink, the shared exponent above it.
const (
	ckdEpiKappaFemale = 0.7
	ckdEpiKappaMale   = 0.9
	ckdEpiAlphaFemale = -0.241
	ckdEpiAlphaMale   = -0.302
	ckdEpiExpAbove    = -1.200
	ckdEpiBase        = 142.0
	ckdEpiFemaleBonus = 1.012
	ckdEpiAgeDecay    = 0.9938

	gfrCreatinineCap = 120.0
	gfrHeuristicMin  = 15.0
	gfrHeuristicMax  = 120.0
)

// Short-term trend thresholds on percent change vs the most recent prior
// value, and the pairwise tolerance for a "consistent" long-term series.
const (
	trendStablePct      = 5.0
	trendSignificantPct = 10.0
	longTermTolerance   = 0.05
)

// EstimateGFR estimates the glomerular filtration rate for a reading. When a
// serum creatinine value is available it uses a CKD-EPI-style piecewise power
// formula (high confidence); otherwise it falls back to a heuristic built
// from age, sex, BMI, hydration, blood pressure, and symptom severity
// (moderate confidence, requires clinical confirmation).
//
// When previous samples are supplied the returned TrendResult classifies the
// trajectory; an empty history yields trend=insufficient_data, never an
// error. The history slice is treated as read-only.
func EstimateGFR(reading domain.HealthReading, previous []domain.GFRSample) (domain.GfrEstimate, *domain.TrendResult, error) {
	if err := reading.Validate(); err != nil {
		return domain.GfrEstimate{}, nil, err
	}

	var estimate domain.GfrEstimate
	if reading.CreatinineMgDl != nil && *reading.CreatinineMgDl > 0 {
		estimate = estimateFromCreatinine(reading)
	} else {
		estimate = estimateFromSymptomsAndVitals(reading)
	}

	if len(previous) == 0 {
		return estimate, nil, nil
	}

	trend := AnalyzeTrend(estimate.Value, previous)
	return estimate, &trend, nil
}

// estimateFromCreatinine applies the CKD-EPI 2021 piecewise power formula.
// The creatinine/GFR relationship is non-linear: the exponent differs on
// each side of the sex-specific reference point.
func estimateFromCreatinine(reading domain.HealthReading) domain.GfrEstimate {
	kappa := ckdEpiKappaMale
	alpha := ckdEpiAlphaMale
	sexFactor := 1.0
	if reading.Sex == domain.SexFemale {
		kappa = ckdEpiKappaFemale
		alpha = ckdEpiAlphaFemale
		sexFactor = ckdEpiFemaleBonus
	}

	ratio := *reading.CreatinineMgDl / kappa
	gfr := ckdEpiBase *
		math.Pow(math.Min(ratio, 1), alpha) *
		math.Pow(math.Max(ratio, 1), ckdEpiExpAbove) *
		math.Pow(ckdEpiAgeDecay, float64(reading.Age)) *
		sexFactor

	return domain.GfrEstimate{
		Value:            round1(math.Min(gfr, gfrCreatinineCap)),
		Method:           domain.CreatinineBased,
		Confidence:       domain.HighConfidence,
		CalculationLabel: "CKD-EPI 2021 creatinine equation (race-free)",
	}
}

// estimateFromSymptomsAndVitals builds a heuristic eGFR from an age-banded
// baseline multiplied by independent penalty/bonus factors. The result is an
// estimate only and is clamped to [15,120].
func estimateFromSymptomsAndVitals(reading domain.HealthReading) domain.GfrEstimate {
	gfr := ageBaselineGFR(float64(reading.Age))

	if reading.Sex == domain.SexFemale {
		gfr *= 0.85
	}

	gfr *= bmiCategoryFactor(BMI(reading.WeightKg, reading.HeightCm))
	gfr *= hydrationFactor(reading.HydrationLiters, reading.HydrationTargetLiters)
	gfr *= bloodPressureFactor(reading.SystolicBP, reading.DiastolicBP)
	gfr *= symptomSeverityFactor(reading.StressScore, reading.FatigueScore, reading.PainScore)

	return domain.GfrEstimate{
		Value:            round1(clamp(gfr, gfrHeuristicMin, gfrHeuristicMax)),
		Method:           domain.SymptomAndVitalBase,
		Confidence:       domain.ModerateConfidence,
		CalculationLabel: "age-banded heuristic with vital and symptom adjustment",
	}
}

// ageBaselineGFR is a piecewise-linear declining curve with a distinct slope
// per decade bracket; renal decline steepens after age 60.
func ageBaselineGFR(age float64) float64 {
	switch {
	case age <= 30:
		return 107
	case age <= 40:
		return 107 - (age-30)*0.5
	case age <= 50:
		return 102 - (age-40)*0.7
	case age <= 60:
		return 95 - (age-50)*0.9
	case age <= 70:
		return 86 - (age-60)*1.2
	default:
		return math.Max(74-(age-70)*1.5, 30)
	}
}

// bmiCategoryFactor applies a mild penalty outside the healthy BMI band.
func bmiCategoryFactor(bmi float64) float64 {
	switch {
	case bmi >= bmiHealthyLow && bmi <= bmiHealthyHigh:
		return 1.0
	case bmi < bmiHealthyLow:
		return 0.93
	case bmi < 30:
		return 0.95
	default:
		return 0.90
	}
}

// hydrationFactor is linear in the intake/target ratio, with a wider swing
// than the creatinine path allows. A missing target is neutral.
func hydrationFactor(intake, target float64) float64 {
	if target <= 0 {
		return 1.0
	}
	ratio := clamp(intake/target, 0, 1)
	return 0.80 + 0.25*ratio
}

// bloodPressureFactor applies discrete tiers, each harsher than the last.
func bloodPressureFactor(systolic, diastolic float64) float64 {
	switch {
	case systolic > 160 || diastolic > 100:
		return 0.80
	case systolic > 140 || diastolic > 90:
		return 0.88
	case systolic > 130 || diastolic > 85:
		return 0.94
	default:
		return 1.0
	}
}

// symptomSeverityFactor weights the available symptom scores (stress 40%,
// fatigue 40%, pain 20%, renormalized over what was reported) and penalizes
// the baseline by up to 15%.
func symptomSeverityFactor(stress, fatigue, pain *float64) float64 {
	var weighted, weightTotal float64
	if stress != nil {
		weighted += 0.4 * (*stress / 10)
		weightTotal += 0.4
	}
	if fatigue != nil {
		weighted += 0.4 * (*fatigue / 10)
		weightTotal += 0.4
	}
	if pain != nil {
		weighted += 0.2 * (*pain / 10)
		weightTotal += 0.2
	}
	if weightTotal == 0 {
		return 1.0
	}
	return 1 - 0.15*(weighted/weightTotal)
}

// AnalyzeTrend classifies the eGFR trajectory against a caller-supplied
// history. The slice is copied before sorting so the caller's data is never
// mutated. An empty history is a valid state: the result carries
// trend=insufficient_data.
func AnalyzeTrend(currentGfr float64, previous []domain.GFRSample) domain.TrendResult {
	if len(previous) == 0 {
		return domain.TrendResult{
			Trend:         domain.TrendInsufficientData,
			LongTermTrend: domain.LongTermUnknown,
			StabilityNote: "No prior readings available for trend analysis.",
		}
	}

	history := make([]domain.GFRSample, len(previous))
	copy(history, previous)
	sort.Slice(history, func(i, j int) bool {
		return history[i].RecordedAt.After(history[j].RecordedAt)
	})

	mostRecent := history[0].Value
	absChange := currentGfr - mostRecent
	pctChange := 0.0
	if mostRecent != 0 {
		pctChange = absChange / mostRecent * 100
	}

	result := domain.TrendResult{
		Trend:          classifyShortTerm(pctChange),
		AbsoluteChange: round1(absChange),
		PercentChange:  round1(pctChange),
		LongTermTrend:  domain.LongTermUnknown,
	}

	if len(history) >= 3 {
		result.LongTermTrend = classifyLongTerm(history)
	}
	result.StabilityNote = stabilityNote(result)

	return result
}

func classifyShortTerm(pctChange float64) domain.Trend {
	switch {
	case math.Abs(pctChange) < trendStablePct:
		return domain.TrendStable
	case pctChange < -trendSignificantPct:
		return domain.TrendSignificantDecline
	case pctChange < 0:
		return domain.TrendPossibleDecline
	case pctChange > trendSignificantPct:
		return domain.TrendSignificantImprovement
	default:
		return domain.TrendPossibleImprovement
	}
}

// classifyLongTerm walks consecutive chronological pairs of the prior values.
// history arrives sorted newest-first.
func classifyLongTerm(history []domain.GFRSample) domain.LongTermTrend {
	chronological := make([]float64, len(history))
	for i, sample := range history {
		chronological[len(history)-1-i] = sample.Value
	}

	allConsistent, allDeclining, allImproving := true, true, true
	for i := 1; i < len(chronological); i++ {
		older, newer := chronological[i-1], chronological[i]
		if older == 0 || math.Abs(newer-older)/older > longTermTolerance {
			allConsistent = false
		}
		if newer >= older {
			allDeclining = false
		}
		if newer <= older {
			allImproving = false
		}
	}

	switch {
	case allConsistent:
		return domain.LongTermConsistent
	case allDeclining:
		return domain.LongTermDeclining
	case allImproving:
		return domain.LongTermImproving
	default:
		return domain.LongTermFluctuating
	}
}

func stabilityNote(result domain.TrendResult) string {
	switch result.LongTermTrend {
	case domain.LongTermConsistent:
		return "Readings have stayed within 5% of each other across the recent series."
	case domain.LongTermDeclining:
		return "Each recent reading has been lower than the one before it."
	case domain.LongTermImproving:
		return "Each recent reading has been higher than the one before it."
	case domain.LongTermFluctuating:
		return "Recent readings have moved in both directions."
	default:
		return fmt.Sprintf("Change vs previous reading: %.1f%%.", result.PercentChange)
	}
}

// InterpretGFR maps an eGFR value to its CKD stage band with fixed
// boundaries at 90/60/45/30/15 ml/min.
func InterpretGFR(value float64) domain.StageInfo {
	switch {
	case value >= 90:
		return domain.StageInfo{Stage: "G1", Description: "Normal or high kidney function"}
	case value >= 60:
		return domain.StageInfo{Stage: "G2", Description: "Mildly decreased kidney function"}
	case value >= 45:
		return domain.StageInfo{Stage: "G3a", Description: "Mild to moderately decreased kidney function"}
	case value >= 30:
		return domain.StageInfo{Stage: "G3b", Description: "Moderate to severely decreased kidney function"}
	case value >= 15:
		return domain.StageInfo{Stage: "G4", Description: "Severely decreased kidney function"}
	default:
		return domain.StageInfo{Stage: "G5", Description: "Kidney failure"}
	}
}

// GFRRecommendation composes the care guidance string for an estimate:
// stage description, trend narrative when available, a disclaimer whenever
// the value came from the symptom-based path, and stage-specific next steps
// with added urgency on a significant decline.
func GFRRecommendation(value float64, method domain.EstimationMethod, trend *domain.TrendResult) string {
	stage := InterpretGFR(value)
	rec := fmt.Sprintf("Estimated GFR %.1f ml/min, stage %s: %s.", value, stage.Stage, stage.Description)

	if trend != nil && trend.Trend != domain.TrendInsufficientData {
		rec += " " + trendNarrative(trend)
	}

	if method == domain.SymptomAndVitalBase {
		rec += " This value is an estimate based on symptoms and vitals, not a laboratory measurement, and requires clinical confirmation."
	}

	rec += " " + stageGuidance(stage.Stage)

	if trend != nil && trend.Trend == domain.TrendSignificantDecline {
		rec += " Given the significant recent decline, contact your healthcare team promptly rather than waiting for a scheduled visit."
	}

	return rec
}

func trendNarrative(trend *domain.TrendResult) string {
	switch trend.Trend {
	case domain.TrendStable:
		return "Your estimated GFR is stable compared with your previous reading."
	case domain.TrendPossibleDecline:
		return fmt.Sprintf("Your estimated GFR is slightly lower than your previous reading (%.1f%%).", trend.PercentChange)
	case domain.TrendSignificantDecline:
		return fmt.Sprintf("Your estimated GFR has dropped notably since your previous reading (%.1f%%).", trend.PercentChange)
	case domain.TrendPossibleImprovement:
		return fmt.Sprintf("Your estimated GFR is slightly higher than your previous reading (+%.1f%%).", trend.PercentChange)
	case domain.TrendSignificantImprovement:
		return fmt.Sprintf("Your estimated GFR has improved notably since your previous reading (+%.1f%%).", trend.PercentChange)
	default:
		return ""
	}
}

func stageGuidance(stage string) string {
	switch stage {
	case "G1", "G2":
		return "Continue routine monitoring and healthy habits."
	case "G3a", "G3b":
		return "Discuss these results with your doctor; a nephrologist referral may be appropriate."
	default:
		return "Discuss treatment options with a nephrologist as soon as possible."
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
