package score

// Contribution converts a resolved raw value into the factor's bounded score
// contribution. Callers only invoke it for available values.
func Contribution(def FactorDefinition, raw float64) float64 {
	value := raw
	if def.Transform != nil {
		value = def.Transform(value)
	}

	var contribution float64
	switch def.Kind {
	case Stepped, HrvDiff:
		contribution = applySteps(def, value)
	default:
		if def.ExactThird {
			// The configured multiplier is 0.333, the production behavior is
			// a literal third. The division wins.
			contribution = value / 3.0
		} else {
			contribution = value * def.Multiplier
		}
	}

	return clamp(contribution, def.MinimumScore, float64(def.Weight))
}

// applySteps walks the step table in declared order; the first rule whose
// closed interval contains the value wins. No match scores 0.
func applySteps(def FactorDefinition, value float64) float64 {
	for _, step := range def.Steps {
		if step.Contains(value) {
			return float64(def.Weight) * step.Multiplier
		}
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
