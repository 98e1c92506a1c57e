package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/julihealth/wellness-backend/internal/domain"
	"github.com/julihealth/wellness-backend/internal/platform/dbctx"
	"github.com/julihealth/wellness-backend/internal/platform/logger"
)

// UserConditionPair identifies one unit of batch score recomputation.
type UserConditionPair struct {
	UserID        uuid.UUID `gorm:"column:user_id"`
	ConditionCode string    `gorm:"column:condition_code"`
}

// UserConditionRepo is the user/condition directory consumed by the batch
// driver and the score read API.
type UserConditionRepo interface {
	Create(dbc dbctx.Context, rows []*domain.UserCondition) ([]*domain.UserCondition, error)

	// ConditionsForUser returns the user's condition codes restricted to the
	// supported set, in a stable order.
	ConditionsForUser(dbc dbctx.Context, userID uuid.UUID) ([]string, error)

	// ActiveUserConditionPairs returns distinct (user, condition) pairs for
	// users with at least one observation created in the last activeDays days,
	// restricted to the supported condition set.
	ActiveUserConditionPairs(dbc dbctx.Context, activeDays int) ([]UserConditionPair, error)
}

type userConditionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserConditionRepo(db *gorm.DB, baseLog *logger.Logger) UserConditionRepo {
	return &userConditionRepo{db: db, log: baseLog.With("repo", "UserConditionRepo")}
}

func (r *userConditionRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *userConditionRepo) Create(dbc dbctx.Context, rows []*domain.UserCondition) ([]*domain.UserCondition, error) {
	if len(rows) == 0 {
		return []*domain.UserCondition{}, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *userConditionRepo) ConditionsForUser(dbc dbctx.Context, userID uuid.UUID) ([]string, error) {
	var codes []string
	if userID == uuid.Nil {
		return codes, nil
	}
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&domain.UserCondition{}).
		Where("user_id = ? AND condition_code IN ?", userID, domain.SupportedConditionCodes).
		Order("condition_code ASC").
		Pluck("condition_code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *userConditionRepo) ActiveUserConditionPairs(dbc dbctx.Context, activeDays int) ([]UserConditionPair, error) {
	cutoff := time.Now().AddDate(0, 0, -activeDays)

	activeUsers := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&domain.Observation{}).
		Distinct("user_id").
		Where("created_at >= ?", cutoff)

	var pairs []UserConditionPair
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&domain.UserCondition{}).
		Select("user_id, condition_code").
		Where("condition_code IN ?", domain.SupportedConditionCodes).
		Where("user_id IN (?)", activeUsers).
		Order("user_id ASC, condition_code ASC").
		Scan(&pairs).Error
	if err != nil {
		return nil, err
	}
	return pairs, nil
}
