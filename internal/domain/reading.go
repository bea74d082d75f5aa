package domain

import (
	"fmt"
	"time"
)

// HealthReading is one patient-submitted set of vitals and symptoms. It is
// immutable per scoring call. Symptom scores are 1-10 when present; weight
// and height must be strictly positive.
type HealthReading struct {
	Age      int     `json:"age" validate:"min=0,max=130"`
	Sex      Sex     `json:"sex" validate:"required"`
	WeightKg float64 `json:"weight_kg" validate:"gt=0"`
	HeightCm float64 `json:"height_cm" validate:"gt=0"`

	SystolicBP  float64 `json:"systolic_bp"`
	DiastolicBP float64 `json:"diastolic_bp"`

	HydrationLiters       float64 `json:"hydration_liters"`
	HydrationTargetLiters float64 `json:"hydration_target_liters"`

	PainScore    *float64 `json:"pain_score,omitempty"`
	StressScore  *float64 `json:"stress_score,omitempty"`
	FatigueScore *float64 `json:"fatigue_score,omitempty"`

	CreatinineMgDl *float64 `json:"creatinine_mg_dl,omitempty"`

	// RaceEthnicity is carried for the downstream narrative layer only.
	// It is never read by any scoring function.
	RaceEthnicity string `json:"race_ethnicity,omitempty"`

	RecordedAt time.Time `json:"recorded_at"`
}

// Validate ensures the reading is well-formed before it enters the scoring
// pipeline. Malformed readings must fail here rather than silently producing
// nonsense scores.
func (r *HealthReading) Validate() error {
	if r.WeightKg <= 0 {
		return NewInputError("weight_kg", "must be strictly positive", r.WeightKg)
	}
	if r.HeightCm <= 0 {
		return NewInputError("height_cm", "must be strictly positive", r.HeightCm)
	}
	if r.Age < 0 || r.Age > 130 {
		return NewInputError("age", "must be between 0 and 130", r.Age)
	}
	if !r.Sex.IsValid() {
		return NewInputError("sex", "must be 'female' or 'male'", string(r.Sex))
	}
	if r.CreatinineMgDl != nil && *r.CreatinineMgDl <= 0 {
		return NewInputError("creatinine_mg_dl", "must be strictly positive when supplied", *r.CreatinineMgDl)
	}
	for field, score := range map[string]*float64{
		"pain_score":    r.PainScore,
		"stress_score":  r.StressScore,
		"fatigue_score": r.FatigueScore,
	} {
		if score != nil && (*score < 1 || *score > 10) {
			return NewInputError(field, "must be between 1 and 10", *score)
		}
	}
	if r.HydrationLiters < 0 {
		return NewInputError("hydration_liters", "must not be negative", r.HydrationLiters)
	}
	if r.HydrationTargetLiters < 0 {
		return NewInputError("hydration_target_liters", "must not be negative", r.HydrationTargetLiters)
	}
	return nil
}

// KSLSInput is the vitals/symptoms subset of a reading that feeds the KSLS
// composite. Demographics are deliberately not representable here; the
// scoring functions accept this type and nothing demographic-shaped.
type KSLSInput struct {
	SystolicBP            float64  `json:"systolic_bp"`
	DiastolicBP           float64  `json:"diastolic_bp"`
	HydrationLiters       float64  `json:"hydration_liters"`
	HydrationTargetLiters float64  `json:"hydration_target_liters"`
	WeightKg              float64  `json:"weight_kg"`
	HeightCm              float64  `json:"height_cm"`
	PainScore             *float64 `json:"pain_score,omitempty"`
	StressScore           *float64 `json:"stress_score,omitempty"`
	FatigueScore          *float64 `json:"fatigue_score,omitempty"`
}

// KSLSInput projects the reading onto the subset the composite scorer sees.
func (r *HealthReading) KSLSInput() KSLSInput {
	return KSLSInput{
		SystolicBP:            r.SystolicBP,
		DiastolicBP:           r.DiastolicBP,
		HydrationLiters:       r.HydrationLiters,
		HydrationTargetLiters: r.HydrationTargetLiters,
		WeightKg:              r.WeightKg,
		HeightCm:              r.HeightCm,
		PainScore:             r.PainScore,
		StressScore:           r.StressScore,
		FatigueScore:          r.FatigueScore,
	}
}

// Validate checks the composite scorer's input invariants.
func (in *KSLSInput) Validate() error {
	if in.WeightKg <= 0 {
		return NewInputError("weight_kg", "must be strictly positive", in.WeightKg)
	}
	if in.HeightCm <= 0 {
		return NewInputError("height_cm", "must be strictly positive", in.HeightCm)
	}
	for field, score := range map[string]*float64{
		"pain_score":    in.PainScore,
		"stress_score":  in.StressScore,
		"fatigue_score": in.FatigueScore,
	} {
		if score != nil && (*score < 1 || *score > 10) {
			return NewInputError(field, "must be between 1 and 10", *score)
		}
	}
	return nil
}

// MetricsRecord is a stored reading together with the results computed for
// it. Persistence is the wrapping service's responsibility, never the
// engine's.
type MetricsRecord struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Reading   HealthReading `json:"reading"`
	Gfr       GfrEstimate   `json:"gfr"`
	GfrTrend  *TrendResult  `json:"gfr_trend,omitempty"`
	Ksls      KSLSResult    `json:"ksls"`
	CreatedAt time.Time     `json:"created_at"`
}

// String renders a compact identifier for logging.
func (m *MetricsRecord) String() string {
	return fmt.Sprintf("%s/%s", m.UserID, m.Reading.RecordedAt.Format("2006-01-02"))
}
