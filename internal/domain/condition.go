package domain

// Supported clinical conditions, keyed by SNOMED-CT code. The wellness score
// engine only computes scores for this set; anything else is rejected at the
// API boundary.
const (
	ConditionDepression = "35489007"
	ConditionAsthma     = "195967001"
	ConditionMigraine   = "37796009"
)

// Observation codes under which computed wellness scores are namespaced.
const (
	ScoreCodeDepression = "wellness-score-depression"
	ScoreCodeAsthma     = "wellness-score-asthma"
	ScoreCodeMigraine   = "wellness-score-migraine"
)

var SupportedConditionCodes = []string{
	ConditionDepression,
	ConditionAsthma,
	ConditionMigraine,
}

var conditionNames = map[string]string{
	ConditionDepression: "Depression",
	ConditionAsthma:     "Asthma",
	ConditionMigraine:   "Migraine",
}

var conditionScoreCodes = map[string]string{
	ConditionDepression: ScoreCodeDepression,
	ConditionAsthma:     ScoreCodeAsthma,
	ConditionMigraine:   ScoreCodeMigraine,
}

func IsSupportedCondition(code string) bool {
	_, ok := conditionNames[code]
	return ok
}

// ConditionName returns the display label for a condition code, falling back
// to the code itself for unknown values.
func ConditionName(code string) string {
	if name, ok := conditionNames[code]; ok {
		return name
	}
	return code
}

func ScoreCodeForCondition(code string) string {
	return conditionScoreCodes[code]
}
