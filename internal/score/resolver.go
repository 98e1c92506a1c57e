package score

import (
	"time"

	"github.com/google/uuid"

	"github.com/julihealth/wellness-backend/internal/data/repos"
	"github.com/julihealth/wellness-backend/internal/platform/dbctx"
	"github.com/julihealth/wellness-backend/internal/platform/logger"
)

// hrvBaselineMax caps how many prior readings feed the HRV baseline mean.
const hrvBaselineMax = 10

// Resolver fetches the raw input for a factor on an evaluation date. A nil
// value with nil error means the factor has no resolvable data, which is an
// expected outcome rather than a failure.
type Resolver struct {
	obs repos.ObservationRepo
	log *logger.Logger
}

func NewResolver(obs repos.ObservationRepo, baseLog *logger.Logger) *Resolver {
	return &Resolver{obs: obs, log: baseLog.With("component", "FactorResolver")}
}

func (r *Resolver) Resolve(dbc dbctx.Context, userID uuid.UUID, def FactorDefinition, onDate time.Time) (*float64, error) {
	switch def.Kind {
	case MedicationPlaceholder:
		// Configured but intentionally not wired; see compliance.go.
		return nil, nil
	case MoodLookup:
		return r.resolveMood(dbc, userID, def, onDate)
	case HrvDiff:
		return r.resolveHrvDiff(dbc, userID, def, onDate)
	case PeriodicTransform:
		return r.obs.LatestInWindow(dbc, userID, def.Code, def.Variant, def.WindowDays, onDate)
	case Proportional:
		if def.WindowDays > 0 {
			return r.obs.AverageInWindow(dbc, userID, def.Code, def.Variant, def.WindowDays, onDate)
		}
		return r.obs.LatestOnDate(dbc, userID, def.Code, def.Variant, onDate)
	case Stepped:
		return r.resolveSteppedSource(dbc, userID, def, onDate)
	}
	return nil, nil
}

func (r *Resolver) resolveSteppedSource(dbc dbctx.Context, userID uuid.UUID, def FactorDefinition, onDate time.Time) (*float64, error) {
	value, err := r.obs.LatestOnDate(dbc, userID, def.Code, def.Variant, onDate)
	if err != nil {
		return nil, err
	}
	if value != nil {
		return value, nil
	}

	// No primary value; sum the fallback codes when the definition has them
	// (sleep stages standing in for total time asleep).
	if len(def.FallbackCodes) == 0 {
		return nil, nil
	}
	total := 0.0
	found := false
	for _, code := range def.FallbackCodes {
		v, err := r.obs.LatestOnDate(dbc, userID, code, nil, onDate)
		if err != nil {
			return nil, err
		}
		if v != nil {
			total += *v
			found = true
		}
	}
	if !found {
		return nil, nil
	}
	return &total, nil
}

func (r *Resolver) resolveMood(dbc dbctx.Context, userID uuid.UUID, def FactorDefinition, onDate time.Time) (*float64, error) {
	label, err := r.obs.LatestStringOnDate(dbc, userID, def.Code, def.Variant, onDate)
	if err != nil {
		return nil, err
	}
	if label == nil {
		return nil, nil
	}
	value, ok := MoodValues[*label]
	if !ok {
		r.log.Debug("Unmapped mood label", "user_id", userID, "label", *label)
		return nil, nil
	}
	return &value, nil
}

func (r *Resolver) resolveHrvDiff(dbc dbctx.Context, userID uuid.UUID, def FactorDefinition, onDate time.Time) (*float64, error) {
	values, err := r.obs.AllInWindow(dbc, userID, def.Code, def.Variant, def.WindowDays, onDate)
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, nil
	}

	latest := values[0]
	previous := values[1:]
	if len(previous) > hrvBaselineMax {
		previous = previous[:hrvBaselineMax]
	}
	sum := 0.0
	for _, v := range previous {
		sum += v
	}
	diff := latest - sum/float64(len(previous))
	return &diff, nil
}
