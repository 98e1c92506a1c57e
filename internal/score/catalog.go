package score

import (
	"math"

	"github.com/julihealth/wellness-backend/internal/domain"
)

// MinDataPoints is the number of resolvable factors required before a
// composite score is produced.
const MinDataPoints = 3

const (
	// DefaultIntervalMinutes is how often the batch driver recomputes scores.
	DefaultIntervalMinutes = 2
	// DefaultActiveUserDays bounds batch work to recently active users.
	DefaultActiveUserDays = 2
)

// FactorKind selects both how a factor's raw value is resolved and how its
// contribution is computed. The kind is fixed at catalog construction; nothing
// re-dispatches on factor names at evaluation time.
type FactorKind int

const (
	// Proportional factors multiply the raw value by a constant. A window of
	// 0 days reads the latest same-day value; a positive window reads the
	// trailing average.
	Proportional FactorKind = iota
	// Stepped factors map the latest same-day value through an ordered step
	// table; the first step whose closed interval contains the value wins.
	Stepped
	// MoodLookup resolves a categorical day label through the 5-point mood
	// table, then scales it proportionally.
	MoodLookup
	// HrvDiff reads the full trailing window and scores the difference
	// between the latest reading and the mean of the prior ones, through the
	// step table. Requires at least 2 readings.
	HrvDiff
	// PeriodicTransform reads the most recent questionnaire score within the
	// trailing window, applies the condition's transform, then scales
	// proportionally.
	PeriodicTransform
	// MedicationPlaceholder is configured but not wired: it always resolves
	// as unavailable. See compliance.go for the formula that will back it.
	MedicationPlaceholder
)

func (k FactorKind) String() string {
	switch k {
	case Proportional:
		return "proportional"
	case Stepped:
		return "stepped"
	case MoodLookup:
		return "mood_lookup"
	case HrvDiff:
		return "hrv_diff"
	case PeriodicTransform:
		return "periodic_transform"
	case MedicationPlaceholder:
		return "medication_placeholder"
	}
	return "unknown"
}

// StepRule maps a closed interval [Lower, Upper] to a weight multiplier.
type StepRule struct {
	Lower      float64
	Upper      float64
	Multiplier float64
}

// Contains reports whether v falls inside the rule's closed interval.
func (s StepRule) Contains(v float64) bool {
	return s.Lower <= v && v <= s.Upper
}

// FactorDefinition is one weighted signal in a condition's score.
type FactorDefinition struct {
	Name string
	Kind FactorKind

	// Weight is the maximum possible contribution; MinimumScore may be
	// negative for penalty factors.
	Weight       int
	MinimumScore float64

	// Multiplier applies to proportional kinds; Steps to stepped kinds.
	Multiplier float64
	Steps      []StepRule

	// Source signal.
	Code    string
	Variant *string

	// WindowDays of 0 means same-day only; the kind decides whether a
	// positive window means average, latest-in-window or full-list.
	WindowDays int

	// FallbackCodes are summed (latest same-day value each) when the primary
	// code yields nothing. Used by sleep to add up stage durations.
	FallbackCodes []string

	// Transform rewrites the raw value before scoring. Set per condition for
	// the periodic questionnaire, whose scale direction differs by condition.
	Transform func(float64) float64

	// ExactThird divides the raw value by exactly 3 instead of applying
	// Multiplier. The active-energy factor ships a 0.333 multiplier constant
	// but the production behavior is the literal division; keep both until
	// product confirms which is authoritative.
	ExactThird bool
}

// MoodValues is the fixed 5-point ordinal table for day mood labels. Labels
// outside this table resolve as unavailable.
var MoodValues = map[string]float64{
	"very-bad":  1,
	"bad":       2,
	"good":      3,
	"very-good": 4,
	"excellent": 5,
}

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
)

// Shared step tables. Air quality and sleep score identically for every
// condition that carries them, except migraine's air quality which adds a
// penalty band.
func airQualitySteps() []StepRule {
	return []StepRule{
		{0, 50, 1.0},
		{51, 100, 0.5},
		{101, posInf, 0.0},
	}
}

func sleepSteps() []StepRule {
	return []StepRule{
		{420, posInf, 1.0},
		{360, 419, 0.7},
		{300, 359, 0.2},
		{0, 299, -0.5},
	}
}

func sleepFallbackCodes() []string {
	return []string{
		domain.ObsTimeLightSleep,
		domain.ObsTimeRemSleep,
		domain.ObsTimeDeepSleep,
	}
}

func depressionFactors() []FactorDefinition {
	return []FactorDefinition{
		{
			Name:   "air_quality",
			Kind:   Stepped,
			Weight: 20,
			Code:   domain.ObsAirQuality,
			Steps:  airQualitySteps(),
		},
		{
			Name:          "sleep",
			Kind:          Stepped,
			Weight:        20,
			MinimumScore:  -10,
			Code:          domain.ObsTimeAsleep,
			Steps:         sleepSteps(),
			FallbackCodes: sleepFallbackCodes(),
		},
		{
			Name:       "biweekly",
			Kind:       PeriodicTransform,
			Weight:     64,
			Multiplier: 2.0,
			Code:       domain.ObsBiweeklyDepressionScore,
			WindowDays: 14,
			Transform:  func(raw float64) float64 { return 32 - raw },
		},
		{
			Name:       "active_energy",
			Kind:       Proportional,
			Weight:     50,
			Multiplier: 0.333,
			ExactThird: true,
			Code:       domain.ObsActiveEnergyBurned,
			WindowDays: 10,
		},
		{
			Name:       "medication",
			Kind:       MedicationPlaceholder,
			Weight:     30,
			Multiplier: 30.0,
		},
		{
			Name:       "mood",
			Kind:       MoodLookup,
			Weight:     25,
			Multiplier: 5.0,
			Code:       domain.ObsDailyMood,
		},
		{
			Name:       "hrv",
			Kind:       HrvDiff,
			Weight:     20,
			Code:       domain.ObsHeartRateVar,
			WindowDays: 30,
			Steps: []StepRule{
				{0, posInf, 1.0},
				{-10, -0.01, 0.5},
				{-15, -10.01, 0.25},
				{negInf, -15.01, 0.0},
			},
		},
	}
}

func asthmaFactors() []FactorDefinition {
	return []FactorDefinition{
		{
			Name:   "air_quality",
			Kind:   Stepped,
			Weight: 20,
			Code:   domain.ObsAirQuality,
			Steps:  airQualitySteps(),
		},
		{
			Name:          "sleep",
			Kind:          Stepped,
			Weight:        20,
			MinimumScore:  -10,
			Code:          domain.ObsTimeAsleep,
			Steps:         sleepSteps(),
			FallbackCodes: sleepFallbackCodes(),
		},
		{
			Name:       "biweekly",
			Kind:       PeriodicTransform,
			Weight:     50,
			Multiplier: 2.0,
			Code:       domain.ObsBiweeklyAsthmaScore,
			WindowDays: 14,
			// Higher asthma questionnaire scores are already better; no
			// inversion.
		},
		{
			Name:       "active_energy",
			Kind:       Proportional,
			Weight:     50,
			Multiplier: 0.333,
			ExactThird: true,
			Code:       domain.ObsActiveEnergyBurned,
			WindowDays: 10,
		},
		{
			Name:       "medication",
			Kind:       MedicationPlaceholder,
			Weight:     30,
			Multiplier: 30.0,
		},
		{
			Name:       "mood",
			Kind:       MoodLookup,
			Weight:     15,
			Multiplier: 3.0,
			Code:       domain.ObsDailyMood,
		},
		{
			Name:       "hrv",
			Kind:       HrvDiff,
			Weight:     40,
			Code:       domain.ObsHeartRateVar,
			WindowDays: 30,
			Steps: []StepRule{
				{0, posInf, 1.0},
				{-6, -0.01, 0.75},
				{-14, -6.01, 0.5},
				{negInf, -14.01, 0.25},
			},
		},
		{
			Name:   "pollen",
			Kind:   Stepped,
			Weight: 30,
			Code:   domain.ObsAirQualityPollen,
			Steps: []StepRule{
				{0, 50, 1.0},
				{51, 85, 0.5},
				{86, 100, 0.2},
				{101, posInf, 0.0},
			},
		},
		{
			Name:   "inhaler",
			Kind:   Stepped,
			Weight: 30,
			Code:   domain.ObsInhalerUsageCount,
			Steps: []StepRule{
				{0, 0.5, 1.0},
				{0.5, 1.5, 0.5},
				{1.5, posInf, 0.0},
			},
		},
	}
}

func migraineFactors() []FactorDefinition {
	return []FactorDefinition{
		{
			Name:         "air_quality",
			Kind:         Stepped,
			Weight:       30,
			MinimumScore: -6,
			Code:         domain.ObsAirQuality,
			Steps: []StepRule{
				{0, 50, 1.0},
				{51, 100, 0.5},
				{101, 140, 0.0},
				{141, posInf, -0.2},
			},
		},
		{
			Name:          "sleep",
			Kind:          Stepped,
			Weight:        20,
			MinimumScore:  -10,
			Code:          domain.ObsTimeAsleep,
			Steps:         sleepSteps(),
			FallbackCodes: sleepFallbackCodes(),
		},
		{
			Name:       "biweekly",
			Kind:       PeriodicTransform,
			Weight:     42,
			Multiplier: 1.0,
			Code:       domain.ObsBiweeklyMigraineScore,
			WindowDays: 14,
			Transform:  func(raw float64) float64 { return 78 - raw },
		},
		{
			Name:       "active_energy",
			Kind:       Proportional,
			Weight:     30,
			Multiplier: 0.333,
			ExactThird: true,
			Code:       domain.ObsActiveEnergyBurned,
			WindowDays: 10,
		},
		{
			Name:       "mood",
			Kind:       MoodLookup,
			Weight:     15,
			Multiplier: 3.0,
			Code:       domain.ObsDailyMood,
		},
		{
			Name:       "hrv",
			Kind:       HrvDiff,
			Weight:     60,
			Code:       domain.ObsHeartRateVar,
			WindowDays: 30,
			Steps: []StepRule{
				{0, posInf, 1.0},
				{-10, -0.01, 0.5},
				{-15, -10.01, 0.25},
				{negInf, -15.01, 0.0},
			},
		},
	}
}

// Registry is the immutable per-condition factor catalog. Built once at
// startup, optionally adjusted by a YAML override file, then shared read-only
// across every evaluation.
type Registry struct {
	factors map[string][]FactorDefinition
	sealed  bool
}

// NewRegistry builds the registry with the built-in catalogs.
func NewRegistry() *Registry {
	return &Registry{
		factors: map[string][]FactorDefinition{
			domain.ConditionDepression: depressionFactors(),
			domain.ConditionAsthma:     asthmaFactors(),
			domain.ConditionMigraine:   migraineFactors(),
		},
	}
}

// Seal marks the registry immutable. Overrides applied after Seal panic:
// catalog mutation is strictly a startup concern.
func (r *Registry) Seal() *Registry {
	r.sealed = true
	return r
}

// Factors returns the ordered factor set for a condition.
func (r *Registry) Factors(conditionCode string) ([]FactorDefinition, bool) {
	defs, ok := r.factors[conditionCode]
	return defs, ok
}

// Conditions returns the supported condition codes in catalog order.
func (r *Registry) Conditions() []string {
	return domain.SupportedConditionCodes
}
