// Package domain contains core business entities and types for kidney health
// scoring: estimated glomerular filtration rate (eGFR) with trend analysis,
// and the Kidney Stress Load Score (KSLS) composite.
//
// The KSLS is a 0-100 heuristic combining vitals, symptoms, and BMI. It is
// explicitly NOT a substitute for a measured or estimated GFR.
package domain

import "time"

// EstimationMethod identifies which formula produced a GFR estimate.
type EstimationMethod string

const (
	CreatinineBased     EstimationMethod = "creatinine-based"
	SymptomAndVitalBase EstimationMethod = "symptom-and-vital-based"
)

// Confidence represents the confidence in a GFR estimate.
type Confidence string

const (
	HighConfidence     Confidence = "high"
	ModerateConfidence Confidence = "moderate"
	LowConfidence      Confidence = "low"
)

// Trend classifies the short-term eGFR trajectory against the most recent
// prior reading.
type Trend string

const (
	TrendInsufficientData       Trend = "insufficient_data"
	TrendStable                 Trend = "stable"
	TrendPossibleDecline        Trend = "possible_decline"
	TrendSignificantDecline     Trend = "significant_decline"
	TrendPossibleImprovement    Trend = "possible_improvement"
	TrendSignificantImprovement Trend = "significant_improvement"
)

// LongTermTrend classifies the trajectory across at least three prior readings.
type LongTermTrend string

const (
	LongTermUnknown     LongTermTrend = "unknown"
	LongTermConsistent  LongTermTrend = "consistent"
	LongTermDeclining   LongTermTrend = "declining"
	LongTermImproving   LongTermTrend = "improving"
	LongTermFluctuating LongTermTrend = "fluctuating"
)

// Band represents the qualitative KSLS bucket.
type Band string

const (
	BandStable   Band = "stable"
	BandModerate Band = "moderate"
	BandHigh     Band = "high"
)

// Sex is the sex assigned at birth, used by the clinical GFR formulas.
type Sex string

const (
	SexFemale Sex = "female"
	SexMale   Sex = "male"
)

// IsValid validates the estimation method tag.
func (m EstimationMethod) IsValid() bool {
	switch m {
	case CreatinineBased, SymptomAndVitalBase:
		return true
	default:
		return false
	}
}

// String returns the string representation of the estimation method.
func (m EstimationMethod) String() string {
	return string(m)
}

// IsValid validates the confidence level.
func (c Confidence) IsValid() bool {
	switch c {
	case HighConfidence, ModerateConfidence, LowConfidence:
		return true
	default:
		return false
	}
}

// String returns the string representation of the confidence level.
func (c Confidence) String() string {
	return string(c)
}

// IsValid validates the short-term trend classification.
func (t Trend) IsValid() bool {
	switch t {
	case TrendInsufficientData, TrendStable, TrendPossibleDecline,
		TrendSignificantDecline, TrendPossibleImprovement, TrendSignificantImprovement:
		return true
	default:
		return false
	}
}

// String returns the string representation of the trend.
func (t Trend) String() string {
	return string(t)
}

// IsValid validates the long-term trend classification.
func (lt LongTermTrend) IsValid() bool {
	switch lt {
	case LongTermUnknown, LongTermConsistent, LongTermDeclining,
		LongTermImproving, LongTermFluctuating:
		return true
	default:
		return false
	}
}

// String returns the string representation of the long-term trend.
func (lt LongTermTrend) String() string {
	return string(lt)
}

// IsValid validates the KSLS band.
func (b Band) IsValid() bool {
	switch b {
	case BandStable, BandModerate, BandHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation of the band.
func (b Band) String() string {
	return string(b)
}

// IsValid validates the sex value used by the clinical formulas.
func (s Sex) IsValid() bool {
	switch s {
	case SexFemale, SexMale:
		return true
	default:
		return false
	}
}

// GfrEstimate is a single eGFR computation result. It is computed fresh on
// every call and never persisted by the engine itself.
type GfrEstimate struct {
	Value            float64          `json:"value"` // ml/min, clamped per method
	Method           EstimationMethod `json:"method"`
	Confidence       Confidence       `json:"confidence"`
	CalculationLabel string           `json:"calculation_label"`
}

// GFRSample is one historical eGFR value with its recording time, supplied by
// the caller for trend analysis.
type GFRSample struct {
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TrendResult classifies short- and long-term eGFR trajectory. The zero-value
// history case is a valid result (insufficient_data), never an error.
type TrendResult struct {
	Trend          Trend         `json:"trend"`
	AbsoluteChange float64       `json:"absolute_change"`
	PercentChange  float64       `json:"percent_change"`
	LongTermTrend  LongTermTrend `json:"long_term_trend"`
	StabilityNote  string        `json:"stability_note"`
}

// StageInfo maps an eGFR value to a CKD stage band.
type StageInfo struct {
	Stage       string `json:"stage"` // G1..G5 (G3 split into G3a/G3b)
	Description string `json:"description"`
}

// KSLSFactors is the normalized per-measurement breakdown behind a KSLS.
// Symptom factors are nil when the corresponding score was not reported;
// nil is a distinct state and is excluded from aggregation, not treated as 0.
type KSLSFactors struct {
	BPNorm      float64  `json:"bp_norm"`
	HydroNorm   float64  `json:"hydro_norm"`
	WeightNorm  float64  `json:"weight_norm"`
	FatigueNorm *float64 `json:"fatigue_norm"`
	PainNorm    *float64 `json:"pain_norm"`
	StressNorm  *float64 `json:"stress_norm"`
}

// KSLSResult is the composite stress score with its banding and factor
// breakdown. It is a pure function of the vitals/symptoms subset of a
// reading; demographics are structurally absent from its input.
type KSLSResult struct {
	KSLS    float64     `json:"ksls"` // 0-100
	Band    Band        `json:"band"`
	BMI     float64     `json:"bmi"`
	Factors KSLSFactors `json:"factors"`
}
