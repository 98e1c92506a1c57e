package score

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/julihealth/wellness-backend/internal/data/repos"
	"github.com/julihealth/wellness-backend/internal/domain"
	"github.com/julihealth/wellness-backend/internal/platform/dbctx"
	"github.com/julihealth/wellness-backend/internal/platform/logger"
)

// SaveOutcome describes what a calculate-and-save pass did.
type SaveOutcome int

const (
	// OutcomeSaved means a new score row was written.
	OutcomeSaved SaveOutcome = iota
	// OutcomeUnchanged means the computed value equals the latest stored
	// score, so no row was written.
	OutcomeUnchanged
	// OutcomeInsufficientData means fewer than MinDataPoints factors
	// resolved; nothing was written.
	OutcomeInsufficientData
)

// LatestScoreCache is an optional read cache for the latest score of a pair.
// Implementations are best-effort: a miss or failure just falls through to
// the store.
type LatestScoreCache interface {
	GetLatest(ctx context.Context, userID uuid.UUID, conditionCode string) (*domain.WellnessScore, bool)
	SetLatest(ctx context.Context, userID uuid.UUID, conditionCode string, row *domain.WellnessScore)
	Invalidate(ctx context.Context, userID uuid.UUID, conditionCode string)
}

// FactorBreakdown is the per-factor slice of a score response.
type FactorBreakdown struct {
	Name       string   `json:"name"`
	InputValue *float64 `json:"input_value"`
	Score      *float64 `json:"score"`
	Weight     int      `json:"weight"`
	Available  bool     `json:"available"`
}

type ScoreResponse struct {
	ID             uuid.UUID         `json:"id"`
	ConditionCode  string            `json:"condition_code"`
	ConditionName  string            `json:"condition_name"`
	Score          int               `json:"score"`
	EffectiveAt    time.Time         `json:"effective_at"`
	Factors        []FactorBreakdown `json:"factors"`
	DataPointsUsed int               `json:"data_points_used"`
	TotalWeight    int               `json:"total_weight"`
	CreatedAt      time.Time         `json:"created_at"`
}

type LatestScoresResponse struct {
	Scores                 []*ScoreResponse `json:"scores"`
	ConditionsWithoutScore []string         `json:"conditions_without_score"`
}

type HistoryResponse struct {
	Scores   []*ScoreResponse `json:"scores"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// Service computes, persists and serves wellness scores.
type Service struct {
	db         *gorm.DB
	log        *logger.Logger
	registry   *Registry
	aggregator *Aggregator
	scores     repos.WellnessScoreRepo
	conditions repos.UserConditionRepo
	cache      LatestScoreCache
	now        func() time.Time
}

func NewService(
	db *gorm.DB,
	baseLog *logger.Logger,
	registry *Registry,
	aggregator *Aggregator,
	scores repos.WellnessScoreRepo,
	conditions repos.UserConditionRepo,
	cache LatestScoreCache,
) *Service {
	return &Service{
		db:         db,
		log:        baseLog.With("service", "ScoreService"),
		registry:   registry,
		aggregator: aggregator,
		scores:     scores,
		conditions: conditions,
		cache:      cache,
		now:        time.Now,
	}
}

// WithClock overrides the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CalculateAndSave evaluates one (user, condition) pair for a date and
// persists the score when it differs from the latest stored value. The
// returned row is the freshly written one for OutcomeSaved, the existing
// latest for OutcomeUnchanged, and nil for OutcomeInsufficientData.
func (s *Service) CalculateAndSave(ctx context.Context, userID uuid.UUID, conditionCode string, onDate time.Time) (*domain.WellnessScore, SaveOutcome, error) {
	dbc := dbctx.Context{Ctx: ctx}

	result, err := s.aggregator.Aggregate(dbc, userID, conditionCode, onDate)
	if err != nil {
		return nil, OutcomeInsufficientData, err
	}
	if !result.Sufficient {
		s.log.Debug("Insufficient data for score",
			"user_id", userID, "condition_code", conditionCode,
			"data_points", result.DataPoints, "required", MinDataPoints)
		return nil, OutcomeInsufficientData, nil
	}

	latest, err := s.scores.LatestForUserCondition(dbc, userID, conditionCode)
	if err != nil {
		return nil, OutcomeInsufficientData, fmt.Errorf("load latest score: %w", err)
	}
	if latest != nil && latest.Score == result.Score {
		// Same value as the latest row: the history already tells this
		// story, skip the write.
		return latest, OutcomeUnchanged, nil
	}

	row := s.buildRow(userID, conditionCode, onDate, result)
	saved, err := s.scores.Create(dbc, row)
	if err != nil {
		if isDuplicateKey(err) {
			// A concurrent run already wrote this exact timestamp. Benign;
			// the stored history is authoritative.
			s.log.Warn("Duplicate score row suppressed",
				"user_id", userID, "condition_code", conditionCode)
			existing, lerr := s.scores.LatestForUserCondition(dbc, userID, conditionCode)
			if lerr != nil {
				return nil, OutcomeUnchanged, lerr
			}
			return existing, OutcomeUnchanged, nil
		}
		return nil, OutcomeInsufficientData, fmt.Errorf("save score: %w", err)
	}

	if s.cache != nil {
		s.cache.SetLatest(ctx, userID, conditionCode, saved)
	}
	s.log.Info("Saved wellness score",
		"user_id", userID, "condition_code", conditionCode, "score", saved.Score)
	return saved, OutcomeSaved, nil
}

// buildRow flattens an aggregation result into a score row. The effective
// timestamp combines the evaluation date with the current time of day so
// repeated writes on the same date stay distinct.
func (s *Service) buildRow(userID uuid.UUID, conditionCode string, onDate time.Time, result *Result) *domain.WellnessScore {
	now := s.now()
	effectiveAt := time.Date(
		onDate.Year(), onDate.Month(), onDate.Day(),
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(),
		onDate.Location(),
	)

	row := &domain.WellnessScore{
		UserID:         userID,
		ConditionCode:  conditionCode,
		Score:          result.Score,
		EffectiveAt:    effectiveAt,
		DataPointsUsed: result.DataPoints,
		TotalWeight:    result.TotalWeight,
	}
	for _, f := range result.Factors {
		row.SetFactorPair(f.Name, f.Input, f.Contribution)
	}
	return row
}

// Latest returns the most recent stored score for a pair, or nil when the
// pair has no history.
func (s *Service) Latest(ctx context.Context, userID uuid.UUID, conditionCode string) (*ScoreResponse, error) {
	if !domain.IsSupportedCondition(conditionCode) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCondition, conditionCode)
	}

	if s.cache != nil {
		if row, ok := s.cache.GetLatest(ctx, userID, conditionCode); ok {
			return s.toResponse(row), nil
		}
	}

	row, err := s.scores.LatestForUserCondition(dbctx.Context{Ctx: ctx}, userID, conditionCode)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	if s.cache != nil {
		s.cache.SetLatest(ctx, userID, conditionCode, row)
	}
	return s.toResponse(row), nil
}

// LatestForAllConditions returns the latest score for each of the user's
// supported conditions plus the list of conditions that have none yet.
func (s *Service) LatestForAllConditions(ctx context.Context, userID uuid.UUID) (*LatestScoresResponse, error) {
	codes, err := s.conditions.ConditionsForUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}

	out := &LatestScoresResponse{
		Scores:                 []*ScoreResponse{},
		ConditionsWithoutScore: []string{},
	}
	for _, code := range codes {
		resp, err := s.Latest(ctx, userID, code)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			out.Scores = append(out.Scores, resp)
		} else {
			out.ConditionsWithoutScore = append(out.ConditionsWithoutScore, code)
		}
	}
	return out, nil
}

// History returns one page of the append-only score history.
func (s *Service) History(ctx context.Context, userID uuid.UUID, conditionCode string, page, pageSize int) (*HistoryResponse, error) {
	if !domain.IsSupportedCondition(conditionCode) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCondition, conditionCode)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	rows, total, err := s.scores.History(dbctx.Context{Ctx: ctx}, userID, conditionCode, page, pageSize)
	if err != nil {
		return nil, err
	}

	out := &HistoryResponse{
		Scores:   make([]*ScoreResponse, 0, len(rows)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, row := range rows {
		out.Scores = append(out.Scores, s.toResponse(row))
	}
	return out, nil
}

// LiveFactors evaluates the pair's factors right now without persisting
// anything. Used by the factor-breakdown endpoint for explainability.
func (s *Service) LiveFactors(ctx context.Context, userID uuid.UUID, conditionCode string, onDate time.Time) (*Result, error) {
	return s.aggregator.Aggregate(dbctx.Context{Ctx: ctx}, userID, conditionCode, onDate)
}

func (s *Service) toResponse(row *domain.WellnessScore) *ScoreResponse {
	defs, _ := s.registry.Factors(row.ConditionCode)

	factors := make([]FactorBreakdown, 0, len(defs))
	for _, def := range defs {
		input, contribution := row.FactorPair(def.Name)
		factors = append(factors, FactorBreakdown{
			Name:       def.Name,
			InputValue: input,
			Score:      contribution,
			Weight:     def.Weight,
			Available:  contribution != nil,
		})
	}

	return &ScoreResponse{
		ID:             row.ID,
		ConditionCode:  row.ConditionCode,
		ConditionName:  domain.ConditionName(row.ConditionCode),
		Score:          row.Score,
		EffectiveAt:    row.EffectiveAt,
		Factors:        factors,
		DataPointsUsed: row.DataPointsUsed,
		TotalWeight:    row.TotalWeight,
		CreatedAt:      row.CreatedAt,
	}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
