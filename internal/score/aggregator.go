package score

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/julihealth/wellness-backend/internal/platform/dbctx"
	"github.com/julihealth/wellness-backend/internal/platform/logger"
)

// ErrUnsupportedCondition is returned for condition codes outside the
// supported set. API validation should reject these before the engine runs.
var ErrUnsupportedCondition = errors.New("unsupported condition code")

// FactorResult is one factor's resolved input and computed contribution.
// Both pointers are nil when the factor had no resolvable data.
type FactorResult struct {
	Name         string   `json:"name"`
	Input        *float64 `json:"input"`
	Contribution *float64 `json:"contribution"`
	Weight       int      `json:"weight"`
}

func (f FactorResult) Available() bool { return f.Contribution != nil }

// Result is the outcome of one aggregation pass. When Sufficient is false the
// data-points gate failed and Score is meaningless; this is a frequent,
// expected outcome rather than an error.
type Result struct {
	Score       int
	DataPoints  int
	TotalWeight int
	Sufficient  bool
	Factors     []FactorResult
}

// Aggregator runs the full per-pair evaluation: resolve every factor, compute
// contributions, gate on minimum data points, produce the 0-100 composite.
type Aggregator struct {
	registry *Registry
	resolver *Resolver
	log      *logger.Logger
}

func NewAggregator(registry *Registry, resolver *Resolver, baseLog *logger.Logger) *Aggregator {
	return &Aggregator{
		registry: registry,
		resolver: resolver,
		log:      baseLog.With("component", "ScoreAggregator"),
	}
}

func (a *Aggregator) Aggregate(dbc dbctx.Context, userID uuid.UUID, conditionCode string, onDate time.Time) (*Result, error) {
	defs, ok := a.registry.Factors(conditionCode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCondition, conditionCode)
	}

	result := &Result{Factors: make([]FactorResult, 0, len(defs))}
	totalScore := 0.0

	// Resolution completes for every factor before the totals are final; a
	// factor that fails to resolve is unavailable, never fatal.
	for _, def := range defs {
		raw := a.resolveSafely(dbc, userID, def, onDate)

		fr := FactorResult{Name: def.Name, Weight: def.Weight}
		if raw != nil {
			contribution := Contribution(def, *raw)
			fr.Input = raw
			fr.Contribution = &contribution

			totalScore += contribution
			result.TotalWeight += def.Weight
			result.DataPoints++
		}
		result.Factors = append(result.Factors, fr)
	}

	if result.DataPoints < MinDataPoints {
		return result, nil
	}

	final := int(math.Round(totalScore / float64(result.TotalWeight) * 100))
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}
	result.Score = final
	result.Sufficient = true
	return result, nil
}

// resolveSafely shields the aggregation from a single factor's failure:
// resolver errors and panics (malformed stored values) degrade to
// "unavailable" so partial scoring can continue.
func (a *Aggregator) resolveSafely(dbc dbctx.Context, userID uuid.UUID, def FactorDefinition, onDate time.Time) (raw *float64) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn("Factor resolution panicked",
				"user_id", userID, "factor", def.Name, "panic", r)
			raw = nil
		}
	}()

	raw, err := a.resolver.Resolve(dbc, userID, def, onDate)
	if err != nil {
		a.log.Warn("Factor resolution failed",
			"user_id", userID, "factor", def.Name, "error", err)
		return nil
	}
	return raw
}
