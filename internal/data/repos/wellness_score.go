package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/julihealth/wellness-backend/internal/domain"
	"github.com/julihealth/wellness-backend/internal/platform/dbctx"
	"github.com/julihealth/wellness-backend/internal/platform/logger"
)

// WellnessScoreRepo persists and reads the append-only score history.
type WellnessScoreRepo interface {
	Create(dbc dbctx.Context, row *domain.WellnessScore) (*domain.WellnessScore, error)

	// LatestForUserCondition returns the most recent stored score by
	// effective_at, or nil when the pair has no history yet.
	LatestForUserCondition(dbc dbctx.Context, userID uuid.UUID, conditionCode string) (*domain.WellnessScore, error)

	// History returns one page of score history ordered effective_at
	// descending, along with the total row count for the pair.
	History(dbc dbctx.Context, userID uuid.UUID, conditionCode string, page, pageSize int) ([]*domain.WellnessScore, int64, error)
}

type wellnessScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWellnessScoreRepo(db *gorm.DB, baseLog *logger.Logger) WellnessScoreRepo {
	return &wellnessScoreRepo{db: db, log: baseLog.With("repo", "WellnessScoreRepo")}
}

func (r *wellnessScoreRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *wellnessScoreRepo) Create(dbc dbctx.Context, row *domain.WellnessScore) (*domain.WellnessScore, error) {
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *wellnessScoreRepo) LatestForUserCondition(dbc dbctx.Context, userID uuid.UUID, conditionCode string) (*domain.WellnessScore, error) {
	var rows []*domain.WellnessScore
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND condition_code = ?", userID, conditionCode).
		Order("effective_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *wellnessScoreRepo) History(dbc dbctx.Context, userID uuid.UUID, conditionCode string, page, pageSize int) ([]*domain.WellnessScore, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	base := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&domain.WellnessScore{}).
		Where("user_id = ? AND condition_code = ?", userID, conditionCode).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*domain.WellnessScore
	err := base.
		Order("effective_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
