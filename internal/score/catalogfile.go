package score

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog overrides let an operator tune weights, multipliers and step tables
// without a rebuild. The file is read once at startup, applied before the
// registry is sealed, and never re-read.
//
// Overrides can only adjust factors that already exist in the built-in
// catalog; they cannot add factors or conditions.

type catalogOverrideFile struct {
	Conditions map[string]conditionOverride `yaml:"conditions"`
}

type conditionOverride struct {
	Factors map[string]factorOverride `yaml:"factors"`
}

type factorOverride struct {
	Weight       *int           `yaml:"weight"`
	MinimumScore *float64       `yaml:"minimum_score"`
	Multiplier   *float64       `yaml:"multiplier"`
	Steps        []stepOverride `yaml:"steps"`
}

type stepOverride struct {
	Lower      float64 `yaml:"lower"`
	Upper      float64 `yaml:"upper"`
	Multiplier float64 `yaml:"multiplier"`
}

// ApplyOverrideFile loads a YAML override file and applies it to the registry.
func (r *Registry) ApplyOverrideFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog override file: %w", err)
	}
	return r.ApplyOverrides(raw)
}

// ApplyOverrides applies raw YAML override content to the registry.
func (r *Registry) ApplyOverrides(raw []byte) error {
	if r.sealed {
		panic("score: catalog override applied after registry was sealed")
	}

	var file catalogOverrideFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse catalog overrides: %w", err)
	}

	for conditionCode, cond := range file.Conditions {
		defs, ok := r.factors[conditionCode]
		if !ok {
			return fmt.Errorf("catalog override for unsupported condition %q", conditionCode)
		}
		for factorName, override := range cond.Factors {
			idx := -1
			for i := range defs {
				if defs[i].Name == factorName {
					idx = i
					break
				}
			}
			if idx < 0 {
				return fmt.Errorf("catalog override for unknown factor %q of condition %q", factorName, conditionCode)
			}
			def := &defs[idx]
			if override.Weight != nil {
				if *override.Weight <= 0 {
					return fmt.Errorf("catalog override: factor %q weight must be positive", factorName)
				}
				def.Weight = *override.Weight
			}
			if override.MinimumScore != nil {
				def.MinimumScore = *override.MinimumScore
			}
			if override.Multiplier != nil {
				def.Multiplier = *override.Multiplier
			}
			if len(override.Steps) > 0 {
				steps := make([]StepRule, 0, len(override.Steps))
				for _, s := range override.Steps {
					steps = append(steps, StepRule{Lower: s.Lower, Upper: s.Upper, Multiplier: s.Multiplier})
				}
				def.Steps = steps
			}
		}
	}
	return nil
}
