// Package interpret turns a computed KSLSResult into a human narrative,
// optionally colored by demographic context. It sits strictly downstream of
// the scoring package: it reads score output types, and the scoring package
// has no import path back to the Demographics type defined here. That
// dependency direction, not a runtime check, is what guarantees demographics
// can never influence the numbers.
package interpret

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kidney-health-score-server/internal/domain"
)

// Demographics is the narrative-only context. It is never accepted by any
// scoring function.
type Demographics struct {
	Age                int        `json:"age"`
	SexAssignedAtBirth domain.Sex `json:"sex_assigned_at_birth"`
	RaceEthnicity      string     `json:"race_ethnicity,omitempty"`
	CKDStage           string     `json:"ckd_stage,omitempty"`
}

// Interpretation is the narrative output for a KSLS result. SafetyNote is
// always present and always states that the score is not a GFR measurement
// or diagnosis. PersonalizedContext appears only when demographics were
// supplied, and is text only.
type Interpretation struct {
	Summary             string   `json:"summary"`
	Detail              string   `json:"detail"`
	SafetyNote          string   `json:"safety_note"`
	TopFactors          []string `json:"top_factors"`
	PersonalizedContext string   `json:"personalized_context,omitempty"`
}

// SafetyNote is the fixed disclaimer attached to every interpretation.
const SafetyNote = "The Kidney Stress Load Score is NOT a GFR measurement and NOT a diagnosis. " +
	"It is a wellness heuristic built from your vitals and symptoms. " +
	"Always consult your healthcare team about your kidney health."

const ageContextThreshold = 60

// InterpretKSLS produces the narrative for a KSLS result. Supplying
// different demographics (or none) changes only PersonalizedContext; the
// summary, top factors, and every numeric field of the result are fixed
// before this function is ever called.
func InterpretKSLS(result domain.KSLSResult, demo *Demographics) Interpretation {
	ranked := rankFactors(result.Factors)

	interpretation := Interpretation{
		Summary:    summaryFor(result),
		Detail:     detailFor(result, ranked),
		SafetyNote: SafetyNote,
		TopFactors: factorNames(ranked),
	}

	if demo != nil {
		interpretation.PersonalizedContext = personalizedContext(result, ranked, demo)
	}

	return interpretation
}

// rankedFactor pairs a factor name with its normalized magnitude.
type rankedFactor struct {
	name  string
	value float64
}

// rankFactors orders the non-nil factors by magnitude, descending, and keeps
// at most three.
func rankFactors(f domain.KSLSFactors) []rankedFactor {
	factors := []rankedFactor{
		{"blood_pressure", f.BPNorm},
		{"hydration", f.HydroNorm},
		{"weight", f.WeightNorm},
	}
	if f.FatigueNorm != nil {
		factors = append(factors, rankedFactor{"fatigue", *f.FatigueNorm})
	}
	if f.PainNorm != nil {
		factors = append(factors, rankedFactor{"pain", *f.PainNorm})
	}
	if f.StressNorm != nil {
		factors = append(factors, rankedFactor{"stress", *f.StressNorm})
	}

	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].value > factors[j].value
	})

	if len(factors) > 3 {
		factors = factors[:3]
	}
	return factors
}

func factorNames(ranked []rankedFactor) []string {
	names := make([]string, len(ranked))
	for i, f := range ranked {
		names[i] = f.name
	}
	return names
}

func summaryFor(result domain.KSLSResult) string {
	switch result.Band {
	case domain.BandStable:
		return fmt.Sprintf("Your Kidney Stress Load Score is %.0f, in the stable range.", result.KSLS)
	case domain.BandModerate:
		return fmt.Sprintf("Your Kidney Stress Load Score is %.0f, in the moderate range.", result.KSLS)
	default:
		return fmt.Sprintf("Your Kidney Stress Load Score is %.0f, in the high range.", result.KSLS)
	}
}

func detailFor(result domain.KSLSResult, ranked []rankedFactor) string {
	var b strings.Builder

	switch result.Band {
	case domain.BandStable:
		b.WriteString("Your tracked vitals and symptoms suggest your kidneys are under low day-to-day stress. ")
	case domain.BandModerate:
		b.WriteString("Some of your tracked measurements are adding stress load; small adjustments may help. ")
	default:
		b.WriteString("Several of your tracked measurements are elevated at once, which deserves attention. ")
	}

	if len(ranked) > 0 && ranked[0].value > 0 {
		b.WriteString(fmt.Sprintf("The largest contributor right now is %s.", humanFactor(ranked[0].name)))
	} else {
		b.WriteString("No single measurement stands out as a contributor.")
	}

	return b.String()
}

func humanFactor(name string) string {
	switch name {
	case "blood_pressure":
		return "blood pressure"
	default:
		return name
	}
}

// personalizedContext appends demographic framing. Text only: nothing here
// feeds back into any number.
func personalizedContext(result domain.KSLSResult, ranked []rankedFactor, demo *Demographics) string {
	var parts []string

	if demo.Age >= ageContextThreshold {
		parts = append(parts, fmt.Sprintf(
			"At %d, you are in the 60+ group where kidney function naturally declines and routine monitoring matters more; trends over time are more informative than any single score.",
			demo.Age))
	}

	dominant := ""
	if len(ranked) > 0 && ranked[0].value > 0 {
		dominant = ranked[0].name
	}
	switch {
	case dominant == "fatigue" && demo.SexAssignedAtBirth == domain.SexFemale:
		parts = append(parts, "Fatigue is your leading factor; in women, persistent fatigue can overlap with anemia and thyroid conditions that also affect kidney health, so it is worth raising with your clinician.")
	case dominant == "blood_pressure" && demo.SexAssignedAtBirth == domain.SexMale:
		parts = append(parts, "Blood pressure is your leading factor; men statistically develop hypertension earlier, and sustained control is one of the strongest protections for kidney function.")
	}

	if demo.RaceEthnicity != "" {
		parts = append(parts, fmt.Sprintf(
			"You shared your background as %s. Communities face different kidney-health outcomes largely because of social and structural factors such as access to care, not biology; this app never uses race or ethnicity in any score calculation.",
			demo.RaceEthnicity))
	}

	if demo.CKDStage != "" && result.Band != domain.BandStable {
		parts = append(parts, fmt.Sprintf(
			"Because you are managing CKD stage %s, share elevated stress-load readings like this one with your care team.",
			demo.CKDStage))
	}

	return strings.Join(parts, " ")
}
